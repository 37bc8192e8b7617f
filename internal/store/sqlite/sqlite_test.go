package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryDSN)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested"
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatalf("query error = %v", err)
	}
	if n != 1 {
		t.Errorf("schema_version rows = %d, want 1", n)
	}
}

func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.Set(ctx, map[string][]byte{
		"records":    []byte(`[]`),
		"reminder:a": []byte(`{"recordId":"a"}`),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, map[string][]byte{"records": []byte(`[{"id":"a"}]`)}); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := s.Get(ctx, "records", "reminder:a", "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Get() returned %d keys, want 2", len(got))
	}
	if string(got["records"]) != `[{"id":"a"}]` {
		t.Errorf("records = %s", got["records"])
	}

	if err := s.Remove(ctx, "reminder:a", "missing"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ = s.Get(ctx, "reminder:a")
	if len(got) != 0 {
		t.Errorf("Get() after Remove = %v", got)
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openTestStore(t)

	changes, _ := s.Watch(ctx)
	_ = s.Set(ctx, map[string][]byte{"records": []byte(`[]`)})

	select {
	case c := <-changes:
		if !c.Touches("records") {
			t.Errorf("change = %v", c.Keys)
		}
	case <-time.After(time.Second):
		t.Fatal("no change event")
	}
}

func TestRecordsOnSQLite(t *testing.T) {
	ctx := context.Background()
	records := store.NewRecords(openTestStore(t))

	in := []*domain.StoreRecord{{ID: "a", StoreName: "A", Status: domain.StatusPending}}
	if err := records.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := records.Find(ctx, "a")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.StoreName != "A" {
		t.Errorf("StoreName = %q", got.StoreName)
	}
}

func TestParseMigrationVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{name: "001_kv.sql", want: 1},
		{name: "012_index.sql", want: 12},
		{name: "kv.sql", wantErr: true},
		{name: "abc_kv.sql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMigrationVersion(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
