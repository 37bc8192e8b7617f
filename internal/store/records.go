package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/followup/internal/domain"
)

// Records reads and writes the record collection and the transient
// reminder payloads on top of a KV.
type Records struct {
	kv KV
}

// NewRecords creates a record repository
func NewRecords(kv KV) *Records {
	return &Records{kv: kv}
}

// KV returns the underlying store
func (r *Records) KV() KV {
	return r.kv
}

// Load returns the full record collection. A missing collection is empty.
func (r *Records) Load(ctx context.Context) ([]*domain.StoreRecord, error) {
	values, err := r.kv.Get(ctx, RecordsKey)
	if err != nil {
		return nil, unavailable("failed to load records", err)
	}

	data, ok := values[RecordsKey]
	if !ok || len(data) == 0 {
		return []*domain.StoreRecord{}, nil
	}

	var records []*domain.StoreRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, unavailable("failed to unmarshal records", err)
	}

	// Drop null entries so callers never see nil records.
	out := records[:0]
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Find returns the record with id from a fresh read.
func (r *Records) Find(ctx context.Context, id string) (*domain.StoreRecord, error) {
	records, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
}

// Save replaces the whole collection.
func (r *Records) Save(ctx context.Context, records []*domain.StoreRecord) error {
	if records == nil {
		records = []*domain.StoreRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := r.kv.Set(ctx, map[string][]byte{RecordsKey: data}); err != nil {
		return unavailable("failed to save records", err)
	}
	return nil
}

// Mutate re-reads the collection, applies fn, and writes the result back.
// Nothing is written when fn returns an error.
//
// This keeps the read-modify-write window as small as a single process
// allows; it is not a transaction.
func (r *Records) Mutate(ctx context.Context, fn func([]*domain.StoreRecord) ([]*domain.StoreRecord, error)) error {
	records, err := r.Load(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return r.Save(ctx, updated)
}

// SavePayload stores the transient payload of a shown reminder.
func (r *Records) SavePayload(ctx context.Context, p *domain.ReminderPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	if err := r.kv.Set(ctx, map[string][]byte{PayloadKey(p.RecordID): data}); err != nil {
		return unavailable("failed to save reminder payload", err)
	}
	return nil
}

// LoadPayload returns the payload for recordID, or nil when none is stored.
func (r *Records) LoadPayload(ctx context.Context, recordID string) (*domain.ReminderPayload, error) {
	key := PayloadKey(recordID)
	values, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, unavailable("failed to load reminder payload", err)
	}
	data, ok := values[key]
	if !ok {
		return nil, nil
	}

	var p domain.ReminderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, unavailable("failed to unmarshal reminder payload", err)
	}
	return &p, nil
}

// RemovePayloads deletes the payloads of the given records.
func (r *Records) RemovePayloads(ctx context.Context, recordIDs ...string) error {
	if len(recordIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(recordIDs))
	for _, id := range recordIDs {
		keys = append(keys, PayloadKey(id))
	}
	if err := r.kv.Remove(ctx, keys...); err != nil {
		return unavailable("failed to remove reminder payload", err)
	}
	return nil
}

func unavailable(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrStorageUnavailable, err)
}
