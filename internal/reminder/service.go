package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/notify"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/timer"
)

const (
	// DefaultSweepInterval is how often the liveness sweep counts reminder timers.
	DefaultSweepInterval = 5 * time.Minute
)

// ErrServiceStopped is returned to callers submitting work after Stop.
var ErrServiceStopped = errors.New("reminder service stopped")

// Options tunes a Service. Zero values pick the defaults.
type Options struct {
	Location *time.Location
	Snooze   time.Duration
	Sweep    time.Duration
}

// Service owns the reminder event loop. Timer fires, store changes, sweeps,
// manual triggers and user actions all run on one goroutine, one at a time.
type Service struct {
	records    *store.Records
	timers     timer.Facility
	scheduler  *Scheduler
	dispatcher *Dispatcher
	logger     logger.Logger
	sweep      time.Duration
	now        func() time.Time

	requests      chan func(context.Context)
	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewService wires a scheduler and dispatcher around the given facilities
func NewService(
	records *store.Records,
	timers timer.Facility,
	notifier notify.Notifier,
	log logger.Logger,
	opts Options,
) *Service {
	sweep := opts.Sweep
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}

	scheduler := NewScheduler(timers, opts.Location, log)
	return &Service{
		records:       records,
		timers:        timers,
		scheduler:     scheduler,
		dispatcher:    NewDispatcher(records, scheduler, notifier, log, opts.Snooze),
		logger:        log,
		sweep:         sweep,
		now:           time.Now,
		requests:      make(chan func(context.Context)),
		manualTrigger: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
	}
}

// Scheduler returns the underlying scheduler
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// Run subscribes to store changes, reconciles once, then processes events
// until ctx is done or Stop is called. A failed initial load is returned.
func (s *Service) Run(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Stop() // pending requests fail fast once the loop is gone

	changes, err := s.records.KV().Watch(watchCtx)
	if err != nil {
		return fmt.Errorf("failed to watch store: %w", err)
	}

	if _, err := s.reconcile(ctx); err != nil {
		return fmt.Errorf("initial reconcile failed: %w", err)
	}

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	s.logger.Info("reminder loop started",
		logger.Duration("sweep_interval", s.sweep))

	for {
		select {
		case key := <-s.timers.Fired():
			s.handleFire(ctx, key)
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if change.Touches(store.RecordsKey) {
				if _, err := s.reconcile(ctx); err != nil {
					s.logger.Error("failed to reconcile after store change",
						logger.Error(err))
				}
			}
		case <-ticker.C:
			s.sweepTimers(ctx)
		case <-s.manualTrigger:
			s.logger.Info("manual reminder reconcile triggered")
			if _, err := s.reconcile(ctx); err != nil {
				s.logger.Error("failed to reconcile reminders",
					logger.Error(err))
			}
		case fn := <-s.requests:
			fn(ctx)
		case <-s.stopCh:
			s.logger.Info("reminder loop stopped")
			return nil
		case <-ctx.Done():
			s.logger.Info("reminder loop stopped")
			return nil
		}
	}
}

// Stop ends the event loop
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Trigger asks the loop for a full reconcile without waiting for it
func (s *Service) Trigger() {
	select {
	case s.manualTrigger <- struct{}{}:
	default:
	}
}

// Reconcile runs a full reconcile on the loop and returns the armed count
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	var armed int
	err := s.do(ctx, func(loopCtx context.Context) error {
		n, err := s.reconcile(loopCtx)
		armed = n
		return err
	})
	return armed, err
}

// Act forwards a notification button press to the dispatcher
func (s *Service) Act(ctx context.Context, notificationID string, action int) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, func(loopCtx context.Context) error {
		var err error
		out, err = s.dispatcher.Act(loopCtx, notificationID, action)
		return err
	})
	return out, err
}

// Click forwards a notification body click to the dispatcher
func (s *Service) Click(ctx context.Context, notificationID string) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, func(loopCtx context.Context) error {
		var err error
		out, err = s.dispatcher.Click(loopCtx, notificationID)
		return err
	})
	return out, err
}

// Close forwards a bare notification dismissal to the dispatcher
func (s *Service) Close(ctx context.Context, notificationID string) (Outcome, error) {
	var out Outcome
	err := s.do(ctx, func(loopCtx context.Context) error {
		var err error
		out, err = s.dispatcher.Close(loopCtx, notificationID)
		return err
	})
	return out, err
}

// ActiveTimers lists the armed reminder timers
func (s *Service) ActiveTimers(ctx context.Context) ([]timer.Entry, error) {
	return s.scheduler.Active(ctx)
}

// do runs fn on the loop goroutine and waits for it to finish
func (s *Service) do(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	req := func(loopCtx context.Context) { done <- fn(loopCtx) }

	select {
	case s.requests <- req:
	case <-s.stopCh:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) reconcile(ctx context.Context) (int, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return 0, err
	}
	return s.scheduler.ReconcileAll(ctx, records, s.now()), nil
}

func (s *Service) handleFire(ctx context.Context, key timer.Key) {
	out, err := s.dispatcher.Fire(ctx, key)
	if err != nil {
		s.logger.Error("reminder fire failed",
			logger.String("timer", key.String()),
			logger.Error(err))
		return
	}
	s.logger.Debug("reminder fired",
		logger.String("timer", key.String()),
		logger.String("state", out.State.String()))
}

func (s *Service) sweepTimers(ctx context.Context) {
	n, err := s.scheduler.Count(ctx)
	if err != nil {
		s.logger.Warn("reminder sweep failed", logger.Error(err))
		return
	}
	s.logger.Info("reminder sweep", logger.Int("active_timers", n))
}
