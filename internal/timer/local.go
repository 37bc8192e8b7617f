package timer

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrStopped is returned by Create once the facility is stopped.
var ErrStopped = errors.New("timer facility stopped")

// Local is an in-process Facility backed by runtime timers.
// Armed timers are lost on exit and must be rebuilt from the records.
type Local struct {
	mu      sync.Mutex
	timers  map[Key]*localTimer
	fired   chan Key
	stopCh  chan struct{}
	stopped bool
	now     func() time.Time
}

type localTimer struct {
	when time.Time
	t    *time.Timer
}

// NewLocal creates an in-process timer facility
func NewLocal() *Local {
	return &Local{
		timers: make(map[Key]*localTimer),
		fired:  make(chan Key, 16),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
}

// Create arms key to fire at when; past instants fire immediately
func (l *Local) Create(_ context.Context, key Key, when time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return ErrStopped
	}

	if old, ok := l.timers[key]; ok {
		old.t.Stop()
	}

	delay := when.Sub(l.now())
	if delay < 0 {
		delay = 0
	}

	lt := &localTimer{when: when}
	lt.t = time.AfterFunc(delay, func() { l.expire(key, lt) })
	l.timers[key] = lt
	return nil
}

// expire delivers key unless lt was replaced or cancelled in the meantime
func (l *Local) expire(key Key, lt *localTimer) {
	l.mu.Lock()
	if l.timers[key] != lt {
		l.mu.Unlock()
		return
	}
	delete(l.timers, key)
	l.mu.Unlock()

	select {
	case l.fired <- key:
	case <-l.stopCh:
	}
}

// Cancel disarms key
func (l *Local) Cancel(_ context.Context, key Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lt, ok := l.timers[key]; ok {
		lt.t.Stop()
		delete(l.timers, key)
	}
	return nil
}

// List returns armed timers ordered by fire time, then key
func (l *Local) List(_ context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, len(l.timers))
	for k, lt := range l.timers {
		entries = append(entries, Entry{Key: k, When: lt.when})
	}
	SortEntries(entries)
	return entries, nil
}

// Fired streams expired keys
func (l *Local) Fired() <-chan Key {
	return l.fired
}

// Stop disarms every timer; pending deliveries are dropped
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	for k, lt := range l.timers {
		lt.t.Stop()
		delete(l.timers, k)
	}
	close(l.stopCh)
}

// SortEntries orders entries by fire time, then key.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.When.Compare(b.When); c != 0 {
			return c
		}
		return strings.Compare(a.Key.String(), b.Key.String())
	})
}
