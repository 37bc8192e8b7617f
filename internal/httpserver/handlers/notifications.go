package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/notify"
	"github.com/MrSnakeDoc/followup/internal/reminder"
)

type notificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

// ListNotifications returns the notifications waiting for the user
func ListNotifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, notificationsResponse{Notifications: d.Inbox.List()})
	}
}

// ActOnNotification applies button {index}: 0 opens the page, 1 snoozes.
// With ?redirect=1 an "open" answers 303 to the store page.
func ActOnNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "action index must be an integer")
			return
		}

		out, err := d.Reminders.Act(r.Context(), chi.URLParam(r, "id"), idx)
		respondOutcome(w, r, d, out, err)
	}
}

// ClickNotification handles a click on the notification body
func ClickNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Reminders.Click(r.Context(), chi.URLParam(r, "id"))
		respondOutcome(w, r, d, out, err)
	}
}

// CloseNotification dismisses a notification without acting on it
func CloseNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := d.Reminders.Close(r.Context(), chi.URLParam(r, "id"))
		respondOutcome(w, r, d, out, err)
	}
}

func respondOutcome(w http.ResponseWriter, r *http.Request, d deps.Deps, out reminder.Outcome, err error) {
	if err != nil {
		fail(w, r, d, "notification action failed", err)
		return
	}
	if out.OpenURL != "" && r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, out.OpenURL, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
