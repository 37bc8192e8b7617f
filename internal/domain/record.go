package domain

import "time"

// Status is the follow-up state of a temp-stored record.
// Completing a follow-up is modeled as deleting the record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusContacted
}

// StoreRecord is a single temp-stored store page awaiting follow-up.
//
// JSON field names match the collection written by the browser extension,
// so records captured by the extension and by this service are interchangeable.
type StoreRecord struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned at creation and never changes.
	ID string `json:"id"`

	// ─────────────────────────────
	// Description (may be empty)
	// ─────────────────────────────

	StoreName string `json:"storeName"`
	ShopID    string `json:"shopId"`
	PageURL   string `json:"pageUrl"`

	// Notes is kept verbatim; append policy belongs to the client.
	Notes string `json:"notes"`

	// ─────────────────────────────
	// Follow-up
	// ─────────────────────────────

	// FollowUpTime is the raw timestamp as supplied. Empty means unscheduled,
	// an unparsable value is treated the same way.
	FollowUpTime string `json:"followUpTime,omitempty"`

	Status Status `json:"status"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is set on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// FollowUpAt parses FollowUpTime. Zone-less values are read in loc.
// ok is false when the record is unscheduled or the timestamp is malformed.
func (r *StoreRecord) FollowUpAt(loc *time.Location) (at time.Time, ok bool) {
	if r.FollowUpTime == "" {
		return time.Time{}, false
	}
	at, err := ParseTimestamp(r.FollowUpTime, loc)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// ReminderAt returns the instant a reminder should fire for r.
// Only pending records with a follow-up strictly after now qualify.
func (r *StoreRecord) ReminderAt(now time.Time, loc *time.Location) (time.Time, bool) {
	if r.ID == "" || r.Status != StatusPending {
		return time.Time{}, false
	}
	at, ok := r.FollowUpAt(loc)
	if !ok || !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}

// Clone returns a shallow copy; StoreRecord holds no reference types.
func (r *StoreRecord) Clone() *StoreRecord {
	c := *r
	return &c
}

// ReminderPayload is the transient record written while a reminder
// notification is on screen and consumed when the user acts on it.
type ReminderPayload struct {
	RecordID  string    `json:"recordId"`
	StoreName string    `json:"storeName"`
	PageURL   string    `json:"pageUrl"`
	FiredAt   time.Time `json:"firedAt"`
}

// Stats summarises a record collection by status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Contacted int `json:"contacted"`
}

// CountByStatus computes Stats over records.
func CountByStatus(records []*StoreRecord) Stats {
	st := Stats{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case StatusPending:
			st.Pending++
		case StatusContacted:
			st.Contacted++
		}
	}
	return st
}
