package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

const (
	// RecordsKey holds the JSON array of every StoreRecord.
	RecordsKey = "records"
	// KeyPrefixPayload prefixes transient reminder payload keys.
	KeyPrefixPayload = "reminder:"
)

// PayloadKey returns the key of the transient payload for a record.
func PayloadKey(recordID string) string {
	return KeyPrefixPayload + recordID
}

// IsPayloadKey reports whether key names a reminder payload.
func IsPayloadKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefixPayload) && len(key) > len(KeyPrefixPayload)
}

// KV is the persistent key/value store the service runs on.
// Values are opaque JSON documents.
type KV interface {
	// Get returns the values of the keys that exist; missing keys are omitted.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set writes all entries.
	Set(ctx context.Context, entries map[string][]byte) error
	// Remove deletes the keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Watch streams a Change after every mutation, from any writer the
	// backend can observe. The channel closes when ctx is done.
	Watch(ctx context.Context) (<-chan Change, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Change lists the keys touched by one mutation.
type Change struct {
	Keys []string `json:"keys"`
}

// Touches reports whether key was part of the change.
func (c Change) Touches(key string) bool {
	return slices.Contains(c.Keys, key)
}

// changeBuffer bounds each subscriber. A full subscriber misses events;
// every consumer reloads the whole collection, so a later event catches it up.
const changeBuffer = 64

// Broadcaster fans Change events out to in-process subscribers.
// Backends without a native change feed embed it.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Change
}

// Subscribe registers a subscriber until ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, changeBuffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan Change)
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers c to every subscriber without blocking.
func (b *Broadcaster) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// KeysOf returns the keys of entries in sorted order.
func KeysOf(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
