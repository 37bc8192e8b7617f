package domain

import "errors"

var (
	// ErrStorageUnavailable wraps any read or write failure of the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedTimestamp marks an unparsable follow-up time.
	// It never leaves the core: callers treat such records as unscheduled.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrRecordNotFound is returned when a mutation targets a missing id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrTimerFacility wraps timer create/cancel/list failures.
	ErrTimerFacility = errors.New("timer facility error")

	// ErrInvalidRecord is returned for rejected record input.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidAction is returned for unknown notification ids or action indexes.
	ErrInvalidAction = errors.New("invalid notification action")
)
