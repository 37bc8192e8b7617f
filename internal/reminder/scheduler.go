package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/timer"
)

// Scheduler keeps exactly one reminder timer per pending record with a
// future follow-up time. It holds no state of its own: every timer can be
// rebuilt from the record set.
type Scheduler struct {
	timers timer.Facility
	loc    *time.Location
	logger logger.Logger
}

// NewScheduler creates a scheduler on top of a timer facility.
// loc is used for follow-up times that carry no zone.
func NewScheduler(timers timer.Facility, loc *time.Location, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		timers: timers,
		loc:    loc,
		logger: log,
	}
}

// ReconcileAll cancels every reminder timer and arms one per eligible record.
// Timer failures are logged and skipped. Returns the number of timers armed.
func (s *Scheduler) ReconcileAll(ctx context.Context, records []*domain.StoreRecord, now time.Time) int {
	if _, err := s.CancelAll(ctx); err != nil {
		s.logger.Warn("failed to cancel existing reminders, rearming anyway",
			logger.Error(err))
	}

	armed := 0
	for _, rec := range records {
		ok, err := s.arm(ctx, rec, now)
		if err != nil {
			s.logger.Warn("failed to arm reminder",
				logger.String("record_id", rec.ID),
				logger.Error(err))
			continue
		}
		if ok {
			armed++
		}
	}

	s.logger.Info("reminders reconciled",
		logger.Int("records", len(records)),
		logger.Int("armed", armed))

	return armed
}

// ScheduleOne replaces the timer of a single record under the same
// eligibility rule as ReconcileAll. armed reports whether a timer now exists.
func (s *Scheduler) ScheduleOne(ctx context.Context, rec *domain.StoreRecord, now time.Time) (armed bool, err error) {
	key := timer.Reminder(rec.ID)
	if err := s.timers.Cancel(ctx, key); err != nil {
		return false, fmt.Errorf("%w: cancel %s: %w", domain.ErrTimerFacility, key, err)
	}
	return s.arm(ctx, rec, now)
}

func (s *Scheduler) arm(ctx context.Context, rec *domain.StoreRecord, now time.Time) (bool, error) {
	when, ok := rec.ReminderAt(now, s.loc)
	if !ok {
		return false, nil
	}

	key := timer.Reminder(rec.ID)
	if err := s.timers.Create(ctx, key, when); err != nil {
		return false, fmt.Errorf("%w: create %s: %w", domain.ErrTimerFacility, key, err)
	}

	s.logger.Debug("reminder armed",
		logger.String("record_id", rec.ID),
		logger.String("store_name", rec.StoreName),
		logger.Time("when", when))

	return true, nil
}

// CancelAll removes every reminder timer. Timers of other kinds sharing
// the facility are left alone.
func (s *Scheduler) CancelAll(ctx context.Context) (int, error) {
	entries, err := s.timers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list: %w", domain.ErrTimerFacility, err)
	}

	cancelled := 0
	var errs []error
	for _, e := range entries {
		if e.Key.Kind != timer.KindReminder {
			continue
		}
		if err := s.timers.Cancel(ctx, e.Key); err != nil {
			errs = append(errs, fmt.Errorf("%w: cancel %s: %w", domain.ErrTimerFacility, e.Key, err))
			continue
		}
		cancelled++
	}

	s.logger.Debug("reminder timers cancelled", logger.Int("count", cancelled))
	return cancelled, errors.Join(errs...)
}

// Active returns the armed reminder timers
func (s *Scheduler) Active(ctx context.Context) ([]timer.Entry, error) {
	entries, err := s.timers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", domain.ErrTimerFacility, err)
	}

	active := make([]timer.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Key.Kind == timer.KindReminder {
			active = append(active, e)
		}
	}
	return active, nil
}

// Count returns the number of armed reminder timers
func (s *Scheduler) Count(ctx context.Context) (int, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return 0, err
	}
	return len(active), nil
}
