package timer

import (
	"context"
	"testing"
	"time"
)

func TestKeyRoundTrip(t *testing.T) {
	tests := []struct {
		input   string
		want    Key
		wantErr bool
	}{
		{input: "reminder:abc", want: Key{Kind: KindReminder, ID: "abc"}},
		{input: "reminder:a:b", want: Key{Kind: KindReminder, ID: "a:b"}},
		{input: "debug_check", wantErr: true},
		{input: "reminder:", wantErr: true},
		{input: ":abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKey(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseKey(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestLocalFires(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()
	defer l.Stop()

	key := Reminder("r1")
	if err := l.Create(ctx, key, time.Now().Add(20*time.Millisecond)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	select {
	case got := <-l.Fired():
		if got != key {
			t.Errorf("fired %v, want %v", got, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	entries, _ := l.List(ctx)
	if len(entries) != 0 {
		t.Errorf("fired timer still listed: %v", entries)
	}
}

func TestLocalCreateReplaces(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()
	defer l.Stop()

	key := Reminder("r1")
	first := time.Now().Add(time.Hour)
	second := time.Now().Add(2 * time.Hour)
	_ = l.Create(ctx, key, first)
	_ = l.Create(ctx, key, second)

	entries, _ := l.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("List() = %d entries, want 1", len(entries))
	}
	if !entries[0].When.Equal(second) {
		t.Errorf("When = %v, want %v", entries[0].When, second)
	}
}

func TestLocalCancel(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()
	defer l.Stop()

	key := Reminder("r1")
	_ = l.Create(ctx, key, time.Now().Add(30*time.Millisecond))
	if err := l.Cancel(ctx, key); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := l.Cancel(ctx, Reminder("unknown")); err != nil {
		t.Errorf("Cancel(unknown) error = %v", err)
	}

	select {
	case k := <-l.Fired():
		t.Errorf("cancelled timer fired: %v", k)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalStop(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()
	_ = l.Create(ctx, Reminder("r1"), time.Now().Add(time.Hour))

	l.Stop()
	l.Stop()

	entries, _ := l.List(ctx)
	if len(entries) != 0 {
		t.Errorf("Stop() left %d timers", len(entries))
	}
	if err := l.Create(ctx, Reminder("r2"), time.Now()); err != ErrStopped {
		t.Errorf("Create() after Stop error = %v, want ErrStopped", err)
	}
}

func TestSortEntries(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		{Key: Reminder("b"), When: now},
		{Key: Reminder("c"), When: now.Add(-time.Minute)},
		{Key: Reminder("a"), When: now},
	}
	SortEntries(entries)
	if entries[0].Key.ID != "c" || entries[1].Key.ID != "a" || entries[2].Key.ID != "b" {
		t.Errorf("SortEntries() order = %v", entries)
	}
}
