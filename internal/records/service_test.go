package records

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/store/memory"
)

var (
	testLoc = time.FixedZone("UTC+8", 8*3600)
	testNow = time.Date(2026, 10, 16, 14, 30, 0, 0, testLoc)
)

func newTestService(t *testing.T) (*Service, *store.Records) {
	t.Helper()
	repo := store.NewRecords(memory.NewStore())
	s := NewService(repo, testLoc, logger.New("error", false))
	s.now = func() time.Time { return testNow }
	n := 0
	s.newID = func() (string, error) {
		n++
		return "id-" + strconv.Itoa(n), nil
	}
	return s, repo
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	rec, err := s.Create(ctx, Input{
		StoreName:    "  Noodle Bar ",
		PageURL:      "https://shop.example/88",
		Notes:        "call owner\n",
		FollowUpTime: "2026-10-17T09:00",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID != "id-1" || rec.Status != domain.StatusPending {
		t.Errorf("Create() = %+v", rec)
	}
	if rec.StoreName != "Noodle Bar" {
		t.Errorf("StoreName = %q, want trimmed", rec.StoreName)
	}
	if rec.Notes != "call owner\n" {
		t.Errorf("Notes = %q, want verbatim", rec.Notes)
	}
	if !rec.CreatedAt.Equal(testNow) || !rec.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}

	got, err := s.Get(ctx, "id-1")
	if err != nil || got.StoreName != "Noodle Bar" {
		t.Errorf("Get() = %+v, %v", got, err)
	}
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Create(context.Background(), Input{Status: "done"})
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("Create() error = %v, want ErrInvalidRecord", err)
	}
}

func TestCreateKeepsMalformedFollowUp(t *testing.T) {
	s, _ := newTestService(t)
	rec, err := s.Create(context.Background(), Input{FollowUpTime: "tomorrow-ish"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.FollowUpTime != "tomorrow-ish" {
		t.Errorf("FollowUpTime = %q, want stored verbatim", rec.FollowUpTime)
	}
}

func TestDefaultIDIsUUIDv7(t *testing.T) {
	id, err := newUUID()
	if err != nil {
		t.Fatalf("newUUID() error = %v", err)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) error = %v", id, err)
	}
	if u.Version() != 7 {
		t.Errorf("version = %d, want 7", u.Version())
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	rec, _ := s.Create(ctx, Input{StoreName: "A", FollowUpTime: "2026-10-17T09:00"})

	later := testNow.Add(time.Hour)
	s.now = func() time.Time { return later }

	contacted := domain.StatusContacted
	got, err := s.Update(ctx, rec.ID, Patch{Status: &contacted, FollowUpTime: strPtr("")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != domain.StatusContacted || got.FollowUpTime != "" {
		t.Errorf("Update() = %+v", got)
	}
	if got.StoreName != "A" {
		t.Errorf("StoreName changed to %q", got.StoreName)
	}
	if !got.UpdatedAt.Equal(later) || !got.CreatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	rec, _ := s.Create(ctx, Input{StoreName: "A"})

	bad := domain.Status("done")
	if _, err := s.Update(ctx, rec.ID, Patch{Status: &bad}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("Update(bad status) error = %v", err)
	}
	if _, err := s.Update(ctx, "missing", Patch{}); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Update(missing) error = %v", err)
	}
}

func TestDeleteRemovesPayload(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestService(t)
	rec, _ := s.Create(ctx, Input{StoreName: "A"})
	_ = repo.SavePayload(ctx, &domain.ReminderPayload{RecordID: rec.ID})

	if err := s.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, rec.ID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if p, _ := repo.LoadPayload(ctx, rec.ID); p != nil {
		t.Error("payload survived delete")
	}
	if err := s.Delete(ctx, rec.ID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestClearTab(t *testing.T) {
	tests := []struct {
		tab       domain.Tab
		wantCount int
		wantLeft  int
	}{
		{tab: domain.TabAll, wantCount: 3, wantLeft: 0},
		{tab: domain.TabPending, wantCount: 2, wantLeft: 1},
		{tab: domain.TabContacted, wantCount: 1, wantLeft: 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			ctx := context.Background()
			s, _ := newTestService(t)
			_, _ = s.Create(ctx, Input{StoreName: "A"})
			_, _ = s.Create(ctx, Input{StoreName: "B"})
			_, _ = s.Create(ctx, Input{StoreName: "C", Status: domain.StatusContacted})

			n, err := s.ClearTab(ctx, tt.tab)
			if err != nil {
				t.Fatalf("ClearTab() error = %v", err)
			}
			if n != tt.wantCount {
				t.Errorf("ClearTab() = %d, want %d", n, tt.wantCount)
			}
			st, _ := s.Stats(ctx)
			if st.Total != tt.wantLeft {
				t.Errorf("records left = %d, want %d", st.Total, tt.wantLeft)
			}
		})
	}
}

func TestListGroups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	_, _ = s.Create(ctx, Input{StoreName: "later", FollowUpTime: "2026-10-16T15:00"})
	_, _ = s.Create(ctx, Input{StoreName: "overdue", FollowUpTime: "2026-10-15T10:00"})
	_, _ = s.Create(ctx, Input{StoreName: "none"})

	groups, err := s.List(ctx, domain.TabAll)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"Overdue since yesterday", "Today", "Unscheduled"}
	if len(groups) != len(want) {
		t.Fatalf("List() returned %d groups, want %d", len(groups), len(want))
	}
	for i, label := range want {
		if groups[i].Label != label {
			t.Errorf("group %d = %q, want %q", i, groups[i].Label, label)
		}
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	_, _ = s.Create(ctx, Input{StoreName: "A"})
	_, _ = s.Create(ctx, Input{StoreName: "B", Status: domain.StatusContacted})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st != (domain.Stats{Total: 2, Pending: 1, Contacted: 1}) {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	existing, _ := s.Create(ctx, Input{StoreName: "old"})

	res, err := s.Import(ctx, []*domain.StoreRecord{
		{ID: existing.ID, StoreName: "renamed", Status: domain.StatusContacted},
		{ID: "seed-1", StoreName: "new", Status: domain.StatusPending},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res != (ImportResult{Added: 1, Skipped: 1}) {
		t.Errorf("Import() = %+v", res)
	}

	got, _ := s.Get(ctx, existing.ID)
	if got.StoreName != "old" || got.Status != domain.StatusPending {
		t.Errorf("existing record overwritten: %+v", got)
	}
	added, err := s.Get(ctx, "seed-1")
	if err != nil || !added.CreatedAt.Equal(testNow) {
		t.Errorf("imported record = %+v, %v", added, err)
	}

	res, _ = s.Import(ctx, []*domain.StoreRecord{{ID: "seed-1", Status: domain.StatusPending}})
	if res != (ImportResult{Skipped: 1}) {
		t.Errorf("re-import = %+v, want all skipped", res)
	}

	if _, err := s.Import(ctx, []*domain.StoreRecord{{ID: "", Status: domain.StatusPending}}); !errors.Is(err, domain.ErrInvalidRecord) {
		t.Errorf("Import(no id) error = %v", err)
	}
}
