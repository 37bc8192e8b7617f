package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/timer"
)

type timerView struct {
	Name     string    `json:"name"`
	RecordID string    `json:"record_id"`
	When     time.Time `json:"when"`
}

type timersResponse struct {
	Timers []timerView `json:"timers"`
}

// Timers lists the armed reminder timers, soonest first
func Timers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := d.Reminders.ActiveTimers(r.Context())
		if err != nil {
			fail(w, r, d, "failed to list timers", err)
			return
		}

		timer.SortEntries(entries)
		out := make([]timerView, 0, len(entries))
		for _, e := range entries {
			out = append(out, timerView{Name: e.Key.String(), RecordID: e.Key.ID, When: e.When})
		}
		writeJSON(w, http.StatusOK, timersResponse{Timers: out})
	}
}
