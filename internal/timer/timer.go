package timer

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind namespaces the timers sharing one facility.
type Kind string

const (
	// KindReminder timers fire follow-up reminders, one per record.
	KindReminder Kind = "reminder"
)

// Key identifies a timer. It replaces name-prefix conventions: owners
// filter by Kind instead of parsing strings.
type Key struct {
	Kind Kind
	ID   string
}

// Reminder returns the reminder timer key of a record.
func Reminder(recordID string) Key {
	return Key{Kind: KindReminder, ID: recordID}
}

// String encodes the key as "<kind>:<id>" for backends that store names.
func (k Key) String() string {
	return string(k.Kind) + ":" + k.ID
}

// ParseKey decodes a String-encoded key.
func ParseKey(s string) (Key, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || kind == "" || id == "" {
		return Key{}, fmt.Errorf("invalid timer key: %q", s)
	}
	return Key{Kind: Kind(kind), ID: id}, nil
}

// Entry is an armed timer.
type Entry struct {
	Key  Key
	When time.Time
}

// Facility is a shared wake-up timer service.
type Facility interface {
	// Create arms a timer, replacing any timer with the same key.
	Create(ctx context.Context, key Key, when time.Time) error
	// Cancel disarms a timer. Unknown keys are not an error.
	Cancel(ctx context.Context, key Key) error
	// List returns every armed timer, of all kinds.
	List(ctx context.Context) ([]Entry, error)
	// Fired streams keys as their timers expire. A fired timer is no longer listed.
	Fired() <-chan Key
}
