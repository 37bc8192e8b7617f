package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/followup/internal/domain"
	"github.com/MrSnakeDoc/followup/internal/httpserver/deps"
	"github.com/MrSnakeDoc/followup/internal/records"
)

type agendaResponse struct {
	Tab    domain.Tab     `json:"tab"`
	Groups []domain.Group `json:"groups"`
}

type clearResponse struct {
	Tab     domain.Tab `json:"tab"`
	Removed int        `json:"removed"`
}

// ListRecords returns the agenda for ?tab=all|pending|contacted
func ListRecords(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tab, err := domain.ParseTab(r.URL.Query().Get("tab"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		groups, err := d.Records.List(r.Context(), tab)
		if err != nil {
			fail(w, r, d, "failed to list records", err)
			return
		}
		writeJSON(w, http.StatusOK, agendaResponse{Tab: tab, Groups: groups})
	}
}

// CreateRecord temp-stores a page
func CreateRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in records.Input
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		rec, err := d.Records.Create(r.Context(), in)
		if err != nil {
			fail(w, r, d, "failed to create record", err)
			return
		}
		w.Header().Set("Location", "/records/"+rec.ID)
		writeJSON(w, http.StatusCreated, rec)
	}
}

func GetRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := d.Records.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, d, "failed to get record", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func UpdateRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p records.Patch
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}

		rec, err := d.Records.Update(r.Context(), chi.URLParam(r, "id"), p)
		if err != nil {
			fail(w, r, d, "failed to update record", err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// DeleteRecord removes a record, which also completes its follow-up
func DeleteRecord(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(w, r, d, "failed to delete record", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearRecords deletes every record under ?tab=; the tab is required
func ClearRecords(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("tab")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "tab is required")
			return
		}
		tab, err := domain.ParseTab(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		n, err := d.Records.ClearTab(r.Context(), tab)
		if err != nil {
			fail(w, r, d, "failed to clear records", err)
			return
		}
		writeJSON(w, http.StatusOK, clearResponse{Tab: tab, Removed: n})
	}
}

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Records.Stats(r.Context())
		if err != nil {
			fail(w, r, d, "failed to compute stats", err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
