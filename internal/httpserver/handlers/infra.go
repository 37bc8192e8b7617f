package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool          `json:"ok"`
	Backend       string        `json:"backend,omitempty"`
	TimersArmed   *int          `json:"timers_armed,omitempty"`
	Notifications *int          `json:"notifications,omitempty"`
	Records       *domain.Stats `json:"records,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the store, the timer facility and the inbox
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store":  checkStore(ctx, d),
			"timers": checkTimers(ctx, d),
		}
		pending := d.Inbox.Count()
		components["notifications"] = componentStatus{OK: true, Notifications: &pending}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode: no store means nothing works, no timers means no reminders
func determineMode(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	if !components["timers"].OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{Backend: d.StoreBackend}
	if err := d.KV.Ping(ctx); err != nil {
		st.Error = err.Error()
		return st
	}

	stats, err := d.Records.Stats(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.OK = true
	st.Records = &stats
	return st
}

func checkTimers(ctx context.Context, d deps.Deps) componentStatus {
	st := componentStatus{Backend: d.TimerBackend}
	entries, err := d.Reminders.ActiveTimers(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	n := len(entries)
	st.OK = true
	st.TimersArmed = &n
	return st
}
