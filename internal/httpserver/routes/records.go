package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/httpserver/handlers"
)

func init() { Register(registerRecords) }

func registerRecords(r chi.Router, d deps.Deps) {
	api := guarded(r, d)
	api.Get("/records", handlers.ListRecords(d))
	api.Get("/records/{id}", handlers.GetRecord(d))
	api.Get("/stats", handlers.Stats(d))
	api.Get("/timers", handlers.Timers(d))

	w := mutating(api, d)
	w.Post("/records", handlers.CreateRecord(d))
	w.Patch("/records/{id}", handlers.UpdateRecord(d))
	w.Delete("/records/{id}", handlers.DeleteRecord(d))
	w.Delete("/records", handlers.ClearRecords(d))
}
