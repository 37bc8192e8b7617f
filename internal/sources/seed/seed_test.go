package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/records"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/store/memory"
)

const testSeed = `---
stores:
  - name: Noodle Bar
    shop_id: "88"
    url: https://shop.example/88
    notes: call the owner
    follow_up: 2026-10-17T09:00
  - id: fixed-id
    name: Tea House
    status: Contacted
  - notes: nothing to identify this one
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	f, err := NewLoader(writeSeed(t, testSeed)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Stores) != 3 {
		t.Fatalf("Load() returned %d stores, want 3", len(f.Stores))
	}
	if f.Stores[0].FollowUp != "2026-10-17T09:00" {
		t.Errorf("FollowUp = %q, want raw text", f.Stores[0].FollowUp)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/seed.yaml").Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOLLOWUP_TEST_SHOP", "https://shop.example/99")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "set variable", input: "url: ${FOLLOWUP_TEST_SHOP}", expected: "url: https://shop.example/99"},
		{name: "unset variable", input: "url: ${FOLLOWUP_TEST_UNSET_VAR}", expected: "url: "},
		{name: "no variables", input: "plain text", expected: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(expandEnv([]byte(tt.input))); got != tt.expected {
				t.Errorf("expandEnv() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMapRecords(t *testing.T) {
	f, _ := NewLoader(writeSeed(t, testSeed)).Load()
	recs, err := NewMapper().MapRecords(f)
	if err != nil {
		t.Fatalf("MapRecords() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("MapRecords() returned %d records, want 2", len(recs))
	}

	first := recs[0]
	if first.Status != domain.StatusPending || first.StoreName != "Noodle Bar" || first.ShopID != "88" {
		t.Errorf("first record = %+v", first)
	}
	if first.ID != generateRecordID("88", "https://shop.example/88", "Noodle Bar") {
		t.Errorf("ID = %q, want derived id", first.ID)
	}

	if recs[1].ID != "fixed-id" || recs[1].Status != domain.StatusContacted {
		t.Errorf("second record = %+v", recs[1])
	}
}

func TestMapRecordsUnknownStatus(t *testing.T) {
	f := &File{Stores: []Entry{{Name: "A", Status: "done"}}}
	if _, err := NewMapper().MapRecords(f); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("MapRecords() error = %v, want ErrInvalidRecord", err)
	}
}

func TestGenerateRecordIDStable(t *testing.T) {
	a := generateRecordID("88", "https://shop.example/88", "Noodle Bar")
	b := generateRecordID("88", "https://shop.example/88", "Noodle Bar")
	c := generateRecordID("88", "https://shop.example/88", "Noodle Bar 2")
	if a != b {
		t.Error("same entry produced different ids")
	}
	if a == c {
		t.Error("different entries produced the same id")
	}
}

func TestReloaderReloadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error", false)
	repo := store.NewRecords(memory.NewStore())
	svc := records.NewService(repo, nil, log)
	r := NewReloader(writeSeed(t, testSeed), svc, log, make(chan struct{}, 1))

	res, err := r.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if res.Added != 2 {
		t.Errorf("first Reload() added %d, want 2", res.Added)
	}

	res, err = r.Reload(ctx)
	if err != nil {
		t.Fatalf("second Reload() error = %v", err)
	}
	if res.Added != 0 || res.Skipped != 2 {
		t.Errorf("second Reload() = %+v, want all skipped", res)
	}

	all, _ := repo.Load(ctx)
	if len(all) != 2 {
		t.Errorf("stored records = %d, want 2", len(all))
	}
}
