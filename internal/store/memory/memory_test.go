package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/followup/internal/store"
)

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if s.Len() != 0 {
		t.Errorf("NewStore() should start empty, got %d keys", s.Len())
	}
}

func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Set(ctx, map[string][]byte{"a": []byte(`1`), "b": []byte(`2`)}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "a", "b", "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Get() returned %d values, want 2", len(got))
	}
	if string(got["a"]) != "1" {
		t.Errorf("Get(a) = %s, want 1", got["a"])
	}
	if _, ok := got["missing"]; ok {
		t.Error("Get() should omit missing keys")
	}

	if err := s.Remove(ctx, "a", "missing"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ = s.Get(ctx, "a")
	if len(got) != 0 {
		t.Error("Remove() did not delete key")
	}
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Set(ctx, map[string][]byte{"k": []byte("abc")})

	got, _ := s.Get(ctx, "k")
	got["k"][0] = 'z'

	again, _ := s.Get(ctx, "k")
	if string(again["k"]) != "abc" {
		t.Errorf("stored value mutated through Get result: %s", again["k"])
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewStore()
	changes, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	_ = s.Set(ctx, map[string][]byte{store.RecordsKey: []byte(`[]`)})
	_ = s.Remove(ctx, store.PayloadKey("42"))

	select {
	case c := <-changes:
		if !c.Touches(store.RecordsKey) {
			t.Errorf("first change = %v, want records key", c.Keys)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event after Set")
	}

	select {
	case c := <-changes:
		if !c.Touches("reminder:42") {
			t.Errorf("second change = %v, want payload key", c.Keys)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event after Remove")
	}

	cancel()
	select {
	case _, ok := <-changes:
		if ok {
			// drain possible buffered event
			for range changes {
			}
		}
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.Close()

	if _, err := s.Get(ctx, "a"); err != ErrClosed {
		t.Errorf("Get() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Set(ctx, map[string][]byte{"a": nil}); err != ErrClosed {
		t.Errorf("Set() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Ping(ctx); err != ErrClosed {
		t.Errorf("Ping() after Close error = %v, want ErrClosed", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, map[string][]byte{"k": []byte("v")})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, "k")
		}()
	}
	wg.Wait()
}
