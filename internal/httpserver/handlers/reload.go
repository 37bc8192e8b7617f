package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/logger"
)

type reloadResponse struct {
	Reconcile bool `json:"reconcile"`
	Seed      bool `json:"seed"`
}

// Reload asks the reminder loop to reconcile now and, when a seed file is
// configured, re-imports it.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Reminders.Trigger()

		seedTriggered := false
		if d.SeedTrigger != nil {
			select {
			case d.SeedTrigger <- struct{}{}:
				seedTriggered = true
			default:
				d.Logger.Warn("seed reload already in progress",
					logger.String("remote_ip", r.RemoteAddr))
			}
		}
		d.Logger.Info("manual reload triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Bool("seed", seedTriggered))

		writeJSON(w, http.StatusAccepted, reloadResponse{Reconcile: true, Seed: seedTriggered})
	}
}
