package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/store"
)

// Input is the data supplied when a page is temp-stored.
type Input struct {
	StoreName    string        `json:"storeName"`
	ShopID       string        `json:"shopId"`
	PageURL      string        `json:"pageUrl"`
	Notes        string        `json:"notes"`
	FollowUpTime string        `json:"followUpTime"`
	Status       domain.Status `json:"status"`
}

// Patch changes selected fields of a record. Nil fields are left alone;
// an empty FollowUpTime unschedules the record.
type Patch struct {
	StoreName    *string        `json:"storeName"`
	ShopID       *string        `json:"shopId"`
	PageURL      *string        `json:"pageUrl"`
	Notes        *string        `json:"notes"`
	FollowUpTime *string        `json:"followUpTime"`
	Status       *domain.Status `json:"status"`
}

// ImportResult counts what an import changed.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Service implements the record mutations behind the popup and capture flows.
// Timers follow automatically: every write is a store change the reminder
// loop reconciles on.
type Service struct {
	records *store.Records
	logger  logger.Logger
	loc     *time.Location
	now     func() time.Time
	newID   func() (string, error)
}

// NewService creates a record service. loc is the zone of the agenda.
func NewService(records *store.Records, loc *time.Location, log logger.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		records: records,
		logger:  log,
		loc:     loc,
		now:     time.Now,
		newID:   newUUID,
	}
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate record id: %w", err)
	}
	return id.String(), nil
}

// Create stores a new record. Status defaults to pending.
func (s *Service) Create(ctx context.Context, in Input) (*domain.StoreRecord, error) {
	if in.Status == "" {
		in.Status = domain.StatusPending
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRecord, in.Status)
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &domain.StoreRecord{
		ID:           id,
		StoreName:    strings.TrimSpace(in.StoreName),
		ShopID:       strings.TrimSpace(in.ShopID),
		PageURL:      strings.TrimSpace(in.PageURL),
		Notes:        in.Notes,
		FollowUpTime: strings.TrimSpace(in.FollowUpTime),
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		return append(records, rec), nil
	})
	if err != nil {
		return nil, err
	}

	s.logFollowUp("record created", rec)
	return rec, nil
}

// Get returns one record
func (s *Service) Get(ctx context.Context, id string) (*domain.StoreRecord, error) {
	return s.records.Find(ctx, id)
}

// Update applies p to the record with id
func (s *Service) Update(ctx context.Context, id string, p Patch) (*domain.StoreRecord, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRecord, *p.Status)
	}

	var updated *domain.StoreRecord
	err := s.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		for _, rec := range records {
			if rec.ID != id {
				continue
			}
			p.apply(rec)
			rec.UpdatedAt = s.now()
			updated = rec.Clone()
			return records, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	})
	if err != nil {
		return nil, err
	}

	s.logFollowUp("record updated", updated)
	return updated, nil
}

func (p Patch) apply(rec *domain.StoreRecord) {
	if p.StoreName != nil {
		rec.StoreName = strings.TrimSpace(*p.StoreName)
	}
	if p.ShopID != nil {
		rec.ShopID = strings.TrimSpace(*p.ShopID)
	}
	if p.PageURL != nil {
		rec.PageURL = strings.TrimSpace(*p.PageURL)
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	if p.FollowUpTime != nil {
		rec.FollowUpTime = strings.TrimSpace(*p.FollowUpTime)
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
}

// Delete removes a record and its pending notification payload.
// Deleting is also how a follow-up is completed.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		for i, rec := range records {
			if rec.ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	})
	if err != nil {
		return err
	}

	if err := s.records.RemovePayloads(ctx, id); err != nil {
		s.logger.Warn("failed to remove reminder payload of deleted record",
			logger.String("record_id", id),
			logger.Error(err))
	}

	s.logger.Info("record deleted", logger.String("record_id", id))
	return nil
}

// ClearTab deletes every record shown under tab and returns how many went.
func (s *Service) ClearTab(ctx context.Context, tab domain.Tab) (int, error) {
	var removed []string
	err := s.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		kept := make([]*domain.StoreRecord, 0, len(records))
		for _, rec := range records {
			if tab.Includes(rec) {
				removed = append(removed, rec.ID)
				continue
			}
			kept = append(kept, rec)
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.records.RemovePayloads(ctx, removed...); err != nil {
		s.logger.Warn("failed to remove reminder payloads of cleared records",
			logger.Error(err))
	}

	s.logger.Info("records cleared",
		logger.String("tab", string(tab)),
		logger.Int("count", len(removed)))
	return len(removed), nil
}

// List returns the records under tab, grouped into agenda buckets
func (s *Service) List(ctx context.Context, tab domain.Tab) ([]domain.Group, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.GroupRecords(records, s.now().In(s.loc), tab), nil
}

// Stats counts the records by status
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.CountByStatus(records), nil
}

// Import adds the incoming records whose id is not stored yet. Records
// that already exist are skipped, so user edits survive a re-import.
func (s *Service) Import(ctx context.Context, incoming []*domain.StoreRecord) (ImportResult, error) {
	var res ImportResult
	if len(incoming) == 0 {
		return res, nil
	}

	for _, in := range incoming {
		if in.ID == "" || !in.Status.Valid() {
			return res, fmt.Errorf("%w: import entry %q", domain.ErrInvalidRecord, in.ID)
		}
	}

	err := s.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		seen := make(map[string]bool, len(records))
		for _, rec := range records {
			seen[rec.ID] = true
		}

		now := s.now()
		for _, in := range incoming {
			if seen[in.ID] {
				res.Skipped++
				continue
			}
			rec := in.Clone()
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			rec.UpdatedAt = now
			records = append(records, rec)
			seen[rec.ID] = true
			res.Added++
		}
		return records, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("records imported",
		logger.Int("added", res.Added),
		logger.Int("skipped", res.Skipped))
	return res, nil
}

func (s *Service) logFollowUp(msg string, rec *domain.StoreRecord) {
	fields := []logger.Field{
		logger.String("record_id", rec.ID),
		logger.String("status", string(rec.Status)),
	}
	if rec.FollowUpTime != "" {
		if _, ok := rec.FollowUpAt(s.loc); !ok {
			fields = append(fields, logger.String("follow_up_time", rec.FollowUpTime))
			s.logger.Warn(msg+" with unparsable follow-up time, it will not be scheduled", fields...)
			return
		}
	}
	s.logger.Info(msg, fields...)
}
