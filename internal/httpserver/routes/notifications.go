package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/httpserver/handlers"
)

func init() { Register(registerNotifications) }

func registerNotifications(r chi.Router, d deps.Deps) {
	api := guarded(r, d)
	api.Get("/notifications", handlers.ListNotifications(d))

	w := mutating(api, d)
	w.Post("/notifications/{id}/actions/{index}", handlers.ActOnNotification(d))
	w.Post("/notifications/{id}/click", handlers.ClickNotification(d))
	w.Delete("/notifications/{id}", handlers.CloseNotification(d))
}
