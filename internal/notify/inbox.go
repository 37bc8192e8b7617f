package notify

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/followup/internal/logger"
)

// Notification is a user-visible alert with actionable responses.
type Notification struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	Actions            []string  `json:"actions"`
	RequireInteraction bool      `json:"require_interaction"`
	ShownAt            time.Time `json:"shown_at"`
}

// Notifier shows and clears notifications. User responses arrive
// out of band and are routed back by notification id.
type Notifier interface {
	Show(ctx context.Context, id string, n Notification) error
	Clear(ctx context.Context, id string) error
}

// Inbox holds the notifications currently on screen. The HTTP API
// lists them and forwards clicks, button presses and dismissals.
type Inbox struct {
	mu     sync.RWMutex
	items  map[string]Notification
	logger logger.Logger
	now    func() time.Time
}

// NewInbox creates an empty inbox
func NewInbox(log logger.Logger) *Inbox {
	return &Inbox{
		items:  make(map[string]Notification),
		logger: log,
		now:    time.Now,
	}
}

// Show displays n under id, replacing any notification with the same id
func (in *Inbox) Show(_ context.Context, id string, n Notification) error {
	n.ID = id
	n.Actions = slices.Clone(n.Actions)
	if n.ShownAt.IsZero() {
		n.ShownAt = in.now()
	}

	in.mu.Lock()
	in.items[id] = n
	in.mu.Unlock()

	in.logger.Info("notification shown",
		logger.String("notification_id", id),
		logger.String("title", n.Title),
		logger.String("message", n.Message))
	return nil
}

// Clear removes the notification with id, if any
func (in *Inbox) Clear(_ context.Context, id string) error {
	in.mu.Lock()
	_, ok := in.items[id]
	delete(in.items, id)
	in.mu.Unlock()

	if ok {
		in.logger.Debug("notification cleared", logger.String("notification_id", id))
	}
	return nil
}

// Get returns the notification with id
func (in *Inbox) Get(id string) (Notification, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	n, ok := in.items[id]
	return n, ok
}

// List returns all notifications, oldest first
func (in *Inbox) List() []Notification {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]Notification, 0, len(in.items))
	for _, n := range in.items {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b Notification) int {
		if c := a.ShownAt.Compare(b.ShownAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Count returns the number of notifications on screen
func (in *Inbox) Count() int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return len(in.items)
}
