package seed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/followup/internal/domain"
)

// Mapper converts seed entries to records
type Mapper struct{}

// NewMapper creates a seed mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapRecords converts f to records. Entries without a name, shop id or URL
// are skipped; an unknown status is an error.
func (m *Mapper) MapRecords(f *File) ([]*domain.StoreRecord, error) {
	if f == nil {
		return nil, nil
	}

	records := make([]*domain.StoreRecord, 0, len(f.Stores))
	for i, e := range f.Stores {
		name := strings.TrimSpace(e.Name)
		shopID := strings.TrimSpace(e.ShopID)
		url := strings.TrimSpace(e.URL)
		if name == "" && shopID == "" && url == "" {
			continue
		}

		status := domain.Status(strings.ToLower(strings.TrimSpace(e.Status)))
		if status == "" {
			status = domain.StatusPending
		}
		if !status.Valid() {
			return nil, fmt.Errorf("%w: entry %d has unknown status %q", domain.ErrInvalidRecord, i, e.Status)
		}

		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = generateRecordID(shopID, url, name)
		}

		records = append(records, &domain.StoreRecord{
			ID:           id,
			StoreName:    name,
			ShopID:       shopID,
			PageURL:      url,
			Notes:        e.Notes,
			FollowUpTime: strings.TrimSpace(e.FollowUp),
			Status:       status,
		})
	}
	return records, nil
}

// generateRecordID derives a stable id so re-importing the same entry
// never creates a duplicate
func generateRecordID(shopID, url, name string) string {
	hash := sha256.Sum256([]byte(shopID + "\x00" + url + "\x00" + name))
	return "seed-" + hex.EncodeToString(hash[:])[:16]
}
