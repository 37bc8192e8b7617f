package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/store"
)

// Store is a store.KV on Redis. Every write publishes its keys on
// ChangesChannel, so processes sharing the database see each other's edits.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// NewStore creates a Redis-backed store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

// Get fetches all keys in one MGET
func (s *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.client.MGet(ctx, dataKeys(keys)...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	for i, v := range values {
		switch val := v.(type) {
		case nil:
			// missing key
		case string:
			out[keys[i]] = []byte(val)
		default:
			return nil, fmt.Errorf("unexpected value type %T for key %s", v, keys[i])
		}
	}
	return out, nil
}

// Set writes all entries and publishes the change in one transaction
func (s *Store) Set(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	keys := store.KeysOf(entries)
	msg, err := json.Marshal(store.Change{Keys: keys})
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, DataKey(k), entries[k], 0)
		}
		pipe.Publish(ctx, ChangesChannel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set keys: %w", err)
	}
	return nil
}

// Remove deletes keys and publishes the change
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	msg, err := json.Marshal(store.Change{Keys: keys})
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, dataKeys(keys)...)
		pipe.Publish(ctx, ChangesChannel, msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

// Watch subscribes to ChangesChannel until ctx is done
func (s *Store) Watch(ctx context.Context) (<-chan store.Change, error) {
	sub := s.client.Subscribe(ctx, ChangesChannel)

	// Wait for the subscription to be confirmed so no write is missed
	// between Watch returning and the first event.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	out := make(chan store.Change, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c store.Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					s.logger.Warn("ignoring malformed change event",
						logger.String("payload", msg.Payload),
						logger.Error(err))
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}
