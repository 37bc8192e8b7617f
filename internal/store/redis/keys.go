package redis

const (
	// KeyPrefixData is the prefix for every stored value
	KeyPrefixData = "followup:kv:"
	// ChangesChannel carries a JSON store.Change after every write
	ChangesChannel = "followup:changes"
	// KeyTimers is the sorted set of armed timers, scored by epoch milliseconds
	KeyTimers = "followup:timers"
)

// DataKey returns the Redis key for a store key
func DataKey(key string) string {
	return KeyPrefixData + key
}

func dataKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = DataKey(k)
	}
	return out
}
