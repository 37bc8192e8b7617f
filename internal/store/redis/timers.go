package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/timer"
)

const (
	// DefaultPollInterval is how often the queue looks for due timers
	DefaultPollInterval = time.Second
	// claimBatch bounds the due timers claimed per poll
	claimBatch = 64
)

// TimerQueue is a timer.Facility on a Redis sorted set. Timers survive
// restarts, and each due timer is claimed with ZREM so exactly one
// polling process fires it.
type TimerQueue struct {
	client   *redis.Client
	logger   logger.Logger
	interval time.Duration
	fired    chan timer.Key
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewTimerQueue creates a timer queue polling every interval
func NewTimerQueue(client *redis.Client, log logger.Logger, interval time.Duration) *TimerQueue {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &TimerQueue{
		client:   client,
		logger:   log,
		interval: interval,
		fired:    make(chan timer.Key, 16),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Create adds or moves a timer
func (q *TimerQueue) Create(ctx context.Context, key timer.Key, when time.Time) error {
	err := q.client.ZAdd(ctx, KeyTimers, redis.Z{
		Score:  float64(when.UnixMilli()),
		Member: key.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to create timer %s: %w", key, err)
	}
	return nil
}

// Cancel removes a timer
func (q *TimerQueue) Cancel(ctx context.Context, key timer.Key) error {
	if err := q.client.ZRem(ctx, KeyTimers, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to cancel timer %s: %w", key, err)
	}
	return nil
}

// List returns every armed timer ordered by fire time
func (q *TimerQueue) List(ctx context.Context) ([]timer.Entry, error) {
	zs, err := q.client.ZRangeWithScores(ctx, KeyTimers, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list timers: %w", err)
	}

	entries := make([]timer.Entry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		key, err := timer.ParseKey(member)
		if err != nil {
			q.logger.Warn("skipping malformed timer", logger.String("member", member))
			continue
		}
		entries = append(entries, timer.Entry{Key: key, When: time.UnixMilli(int64(z.Score))})
	}
	timer.SortEntries(entries)
	return entries, nil
}

// Fired streams claimed timers
func (q *TimerQueue) Fired() <-chan timer.Key {
	return q.fired
}

// Start begins polling for due timers
func (q *TimerQueue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := q.Poll(ctx); err != nil {
					q.logger.Warn("timer poll failed", logger.Error(err))
				}
			case <-q.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends polling. Armed timers stay in Redis.
func (q *TimerQueue) Stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// Poll claims every due timer and delivers it on Fired
func (q *TimerQueue) Poll(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, KeyTimers, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(q.now().UnixMilli(), 10),
		Count: claimBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read due timers: %w", err)
	}

	for _, member := range due {
		removed, err := q.client.ZRem(ctx, KeyTimers, member).Result()
		if err != nil {
			return fmt.Errorf("failed to claim timer %s: %w", member, err)
		}
		if removed == 0 {
			// claimed by another process
			continue
		}

		key, err := timer.ParseKey(member)
		if err != nil {
			q.logger.Warn("dropping malformed timer", logger.String("member", member))
			continue
		}

		select {
		case q.fired <- key:
		case <-q.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
