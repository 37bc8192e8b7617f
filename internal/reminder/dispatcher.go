package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/notify"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/timer"
)

// State is the lifecycle position of one reminder fire event.
type State int

const (
	StateArmed State = iota
	StateValidating
	StateSuppressed
	StateShown
	StateDismissed
)

var stateNames = [...]string{
	StateArmed:      "armed",
	StateValidating: "validating",
	StateSuppressed: "suppressed",
	StateShown:      "shown",
	StateDismissed:  "dismissed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Notification action indexes, in button order.
const (
	ActionActNow = 0
	ActionSnooze = 1
)

const (
	// DefaultSnooze is how far a snooze pushes the follow-up time.
	DefaultSnooze = 15 * time.Minute

	notificationTitle = "Store follow-up reminder"
	unknownStoreName  = "Unknown store"
)

var actionLabels = []string{"Act now", "Snooze"}

// Outcome reports where a fire event or user action left the reminder.
type Outcome struct {
	State        State     `json:"state"`
	RecordID     string    `json:"record_id,omitempty"`
	OpenURL      string    `json:"open_url,omitempty"`
	SnoozedUntil time.Time `json:"snoozed_until,omitzero"`
}

// Dispatcher turns fired reminder timers into notifications and applies
// the user's response to them.
type Dispatcher struct {
	records   *store.Records
	scheduler *Scheduler
	notifier  notify.Notifier
	logger    logger.Logger
	now       func() time.Time
	snooze    time.Duration
}

// NewDispatcher creates a dispatcher. A non-positive snooze uses DefaultSnooze.
func NewDispatcher(
	records *store.Records,
	scheduler *Scheduler,
	notifier notify.Notifier,
	log logger.Logger,
	snooze time.Duration,
) *Dispatcher {
	if snooze <= 0 {
		snooze = DefaultSnooze
	}
	return &Dispatcher{
		records:   records,
		scheduler: scheduler,
		notifier:  notifier,
		logger:    log,
		now:       time.Now,
		snooze:    snooze,
	}
}

// NotificationID returns the notification id used for a record's reminder.
func NotificationID(recordID string) string {
	return timer.Reminder(recordID).String()
}

// Fire handles an expired reminder timer. The record is re-read: a record
// that is gone or no longer pending is suppressed without notification.
func (d *Dispatcher) Fire(ctx context.Context, key timer.Key) (Outcome, error) {
	if key.Kind != timer.KindReminder {
		return Outcome{State: StateSuppressed}, nil
	}
	out := Outcome{State: StateValidating, RecordID: key.ID}

	rec, err := d.records.Find(ctx, key.ID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		d.logger.Info("record gone, reminder suppressed",
			logger.String("record_id", key.ID))
		out.State = StateSuppressed
		return out, nil
	case err != nil:
		d.logger.Error("failed to load record for reminder",
			logger.String("record_id", key.ID),
			logger.Error(err))
		return out, err
	}

	if rec.Status != domain.StatusPending {
		d.logger.Info("record no longer pending, reminder suppressed",
			logger.String("record_id", key.ID),
			logger.String("status", string(rec.Status)))
		out.State = StateSuppressed
		return out, nil
	}

	firedAt := d.now()
	payload := &domain.ReminderPayload{
		RecordID:  rec.ID,
		StoreName: rec.StoreName,
		PageURL:   rec.PageURL,
		FiredAt:   firedAt,
	}
	if err := d.records.SavePayload(ctx, payload); err != nil {
		d.logger.Error("failed to persist reminder payload",
			logger.String("record_id", rec.ID),
			logger.Error(err))
		return out, err
	}

	name := rec.StoreName
	if name == "" {
		name = unknownStoreName
	}
	n := notify.Notification{
		Title:              notificationTitle,
		Message:            "Time to follow up on store: " + name,
		Actions:            actionLabels,
		RequireInteraction: true,
		ShownAt:            firedAt,
	}
	if err := d.notifier.Show(ctx, NotificationID(rec.ID), n); err != nil {
		d.logger.Error("failed to show reminder",
			logger.String("record_id", rec.ID),
			logger.Error(err))
		if rmErr := d.records.RemovePayloads(ctx, rec.ID); rmErr != nil {
			d.logger.Warn("failed to remove orphan reminder payload",
				logger.String("record_id", rec.ID),
				logger.Error(rmErr))
		}
		return out, fmt.Errorf("failed to show reminder: %w", err)
	}

	out.State = StateShown
	return out, nil
}

// Act applies a notification button press.
func (d *Dispatcher) Act(ctx context.Context, notificationID string, action int) (Outcome, error) {
	key, err := parseNotificationID(notificationID)
	if err != nil {
		return Outcome{}, err
	}

	switch action {
	case ActionActNow:
		return d.open(ctx, key.ID)
	case ActionSnooze:
		return d.snoozeReminder(ctx, key.ID)
	default:
		return Outcome{State: StateShown, RecordID: key.ID},
			fmt.Errorf("%w: unknown action index %d", domain.ErrInvalidAction, action)
	}
}

// Click handles a click on the notification body, which acts like "act now".
func (d *Dispatcher) Click(ctx context.Context, notificationID string) (Outcome, error) {
	key, err := parseNotificationID(notificationID)
	if err != nil {
		return Outcome{}, err
	}
	return d.open(ctx, key.ID)
}

// Close handles a notification dismissed without a button: the payload is
// dropped and the record is left untouched.
func (d *Dispatcher) Close(ctx context.Context, notificationID string) (Outcome, error) {
	key, err := parseNotificationID(notificationID)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{State: StateShown, RecordID: key.ID}

	if err := d.notifier.Clear(ctx, notificationID); err != nil {
		d.logger.Warn("failed to clear notification",
			logger.String("notification_id", notificationID),
			logger.Error(err))
	}
	if err := d.records.RemovePayloads(ctx, key.ID); err != nil {
		d.logger.Error("failed to remove reminder payload",
			logger.String("record_id", key.ID),
			logger.Error(err))
		return out, err
	}

	out.State = StateDismissed
	return out, nil
}

// open surfaces the record's page and dismisses the notification.
func (d *Dispatcher) open(ctx context.Context, recordID string) (Outcome, error) {
	out := Outcome{State: StateShown, RecordID: recordID}

	payload, err := d.records.LoadPayload(ctx, recordID)
	if err != nil {
		d.logger.Error("failed to load reminder payload",
			logger.String("record_id", recordID),
			logger.Error(err))
		return out, err
	}

	var findErr error
	if payload != nil {
		out.OpenURL = payload.PageURL
	} else {
		var rec *domain.StoreRecord
		if rec, findErr = d.records.Find(ctx, recordID); findErr == nil {
			out.OpenURL = rec.PageURL
		}
	}

	if err := d.dismiss(ctx, recordID); err != nil {
		return out, err
	}
	if errors.Is(findErr, domain.ErrRecordNotFound) {
		d.logger.Warn("opened reminder for a record that no longer exists",
			logger.String("record_id", recordID))
		out.State = StateDismissed
		return out, findErr
	}

	d.logger.Info("reminder acted on",
		logger.String("record_id", recordID),
		logger.String("page_url", out.OpenURL))

	out.State = StateDismissed
	return out, nil
}

// snoozeReminder moves the follow-up time to now+snooze and re-arms the
// timer. The write and the reschedule commit together: if re-arming fails,
// the previous follow-up time is restored.
func (d *Dispatcher) snoozeReminder(ctx context.Context, recordID string) (Outcome, error) {
	out := Outcome{State: StateShown, RecordID: recordID}
	now := d.now()
	until := now.Add(d.snooze)
	newValue := domain.FormatTimestamp(until)

	var (
		previous string
		snoozed  *domain.StoreRecord
	)
	err := d.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		for _, rec := range records {
			if rec.ID != recordID {
				continue
			}
			previous = rec.FollowUpTime
			rec.FollowUpTime = newValue
			rec.UpdatedAt = now
			snoozed = rec.Clone()
			return records, nil
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, recordID)
	})
	if errors.Is(err, domain.ErrRecordNotFound) {
		d.logger.Warn("snoozed record no longer exists",
			logger.String("record_id", recordID))
		if dErr := d.dismiss(ctx, recordID); dErr != nil {
			return out, dErr
		}
		out.State = StateDismissed
		return out, err
	}
	if err != nil {
		d.logger.Error("failed to snooze reminder",
			logger.String("record_id", recordID),
			logger.Error(err))
		return out, err
	}

	if _, err := d.scheduler.ScheduleOne(ctx, snoozed, now); err != nil {
		d.logger.Error("failed to re-arm snoozed reminder, restoring follow-up time",
			logger.String("record_id", recordID),
			logger.Error(err))
		d.restoreFollowUp(ctx, recordID, newValue, previous)
		return out, fmt.Errorf("snooze not committed: %w", err)
	}

	if err := d.dismiss(ctx, recordID); err != nil {
		return out, err
	}

	d.logger.Info("reminder snoozed",
		logger.String("record_id", recordID),
		logger.Duration("snooze", d.snooze),
		logger.Time("until", until))

	out.State = StateDismissed
	out.SnoozedUntil = until
	return out, nil
}

// restoreFollowUp undoes a snooze write unless someone changed the value since.
func (d *Dispatcher) restoreFollowUp(ctx context.Context, recordID, written, previous string) {
	err := d.records.Mutate(ctx, func(records []*domain.StoreRecord) ([]*domain.StoreRecord, error) {
		for _, rec := range records {
			if rec.ID == recordID && rec.FollowUpTime == written {
				rec.FollowUpTime = previous
			}
		}
		return records, nil
	})
	if err != nil {
		d.logger.Error("failed to restore follow-up time after snooze failure",
			logger.String("record_id", recordID),
			logger.Error(err))
	}
}

// dismiss clears the notification and its payload.
func (d *Dispatcher) dismiss(ctx context.Context, recordID string) error {
	if err := d.notifier.Clear(ctx, NotificationID(recordID)); err != nil {
		d.logger.Warn("failed to clear notification",
			logger.String("record_id", recordID),
			logger.Error(err))
	}
	if err := d.records.RemovePayloads(ctx, recordID); err != nil {
		d.logger.Error("failed to remove reminder payload",
			logger.String("record_id", recordID),
			logger.Error(err))
		return err
	}
	return nil
}

func parseNotificationID(id string) (timer.Key, error) {
	key, err := timer.ParseKey(id)
	if err != nil || key.Kind != timer.KindReminder {
		return timer.Key{}, fmt.Errorf("%w: unknown notification %q", domain.ErrInvalidAction, id)
	}
	return key, nil
}
