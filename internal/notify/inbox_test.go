package notify

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/followup/internal/logger"
)

func TestInboxShowClear(t *testing.T) {
	ctx := context.Background()
	in := NewInbox(logger.New("error", false))

	err := in.Show(ctx, "reminder:a", Notification{
		Title:   "Store follow-up reminder",
		Message: "Time to follow up on store: A",
		Actions: []string{"Act now", "Snooze"},
	})
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	n, ok := in.Get("reminder:a")
	if !ok {
		t.Fatal("Get() did not find shown notification")
	}
	if n.ID != "reminder:a" {
		t.Errorf("ID = %q, want reminder:a", n.ID)
	}
	if n.ShownAt.IsZero() {
		t.Error("ShownAt not set")
	}
	if len(n.Actions) != 2 {
		t.Errorf("Actions = %v, want 2 actions", n.Actions)
	}

	if err := in.Clear(ctx, "reminder:a"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if in.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", in.Count())
	}
	if err := in.Clear(ctx, "reminder:a"); err != nil {
		t.Errorf("Clear() of missing id error = %v", err)
	}
}

func TestInboxListOrder(t *testing.T) {
	ctx := context.Background()
	in := NewInbox(logger.New("error", false))
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	_ = in.Show(ctx, "reminder:late", Notification{ShownAt: base.Add(time.Minute)})
	_ = in.Show(ctx, "reminder:b", Notification{ShownAt: base})
	_ = in.Show(ctx, "reminder:a", Notification{ShownAt: base})

	list := in.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d, want 3", len(list))
	}
	want := []string{"reminder:a", "reminder:b", "reminder:late"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestInboxShowReplaces(t *testing.T) {
	ctx := context.Background()
	in := NewInbox(logger.New("error", false))

	_ = in.Show(ctx, "reminder:a", Notification{Message: "first"})
	_ = in.Show(ctx, "reminder:a", Notification{Message: "second"})

	if in.Count() != 1 {
		t.Errorf("Count() = %d, want 1", in.Count())
	}
	if n, _ := in.Get("reminder:a"); n.Message != "second" {
		t.Errorf("Message = %q, want second", n.Message)
	}
}
