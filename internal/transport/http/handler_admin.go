package httptransport

import (
	"context"
	"net/http"

	"sweeps-casino/internal/app/lobby"
	"sweeps-casino/internal/ledger"

	"github.com/go-chi/chi/v5"
)

type playerActionFunc func(ctx context.Context, id string, req lobby.PlayerRequest) *lobby.ActionResponse

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LedgerReader lists journaled ledger entries, newest first.
type LedgerReader interface {
	ListLedgerEntries(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error)
}

type AdminHandlers struct {
	svc     *lobby.Service
	db      Pinger
	journal LedgerReader
}

// NewAdminHandlers accepts nil db and journal when running without Postgres.
func NewAdminHandlers(svc *lobby.Service, db Pinger, journal LedgerReader) *AdminHandlers {
	return &AdminHandlers{svc: svc, db: db, journal: journal}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "disabled"})
			return
		}
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.CreateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := h.svc.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (h *AdminHandlers) Start() http.HandlerFunc {
	return h.lifecycle(h.svc.Start)
}

func (h *AdminHandlers) Cancel() http.HandlerFunc {
	return h.lifecycle(h.svc.Cancel)
}

func (h *AdminHandlers) Finish() http.HandlerFunc {
	return h.lifecycle(h.svc.Finish)
}

func (h *AdminHandlers) Advance() http.HandlerFunc {
	return h.lifecycle(h.svc.Advance)
}

func (h *AdminHandlers) lifecycle(fn func(ctx context.Context, id string) *lobby.ActionResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricAdminActionTotal.Add(1)
		resp := fn(r.Context(), chi.URLParam(r, "id"))
		if !resp.Success {
			metricAdminActionErrors.Add(1)
		}
		writeAction(w, resp)
	}
}

func (h *AdminHandlers) Chips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.ChipsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		metricAdminActionTotal.Add(1)
		resp := h.svc.UpdateChips(r.Context(), chi.URLParam(r, "id"), req)
		if !resp.Success {
			metricAdminActionErrors.Add(1)
		}
		writeAction(w, resp)
	}
}

func (h *AdminHandlers) Eliminate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.PlayerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		metricAdminActionTotal.Add(1)
		resp := h.svc.Eliminate(r.Context(), chi.URLParam(r, "id"), req)
		if !resp.Success {
			metricAdminActionErrors.Add(1)
		}
		writeAction(w, resp)
	}
}

func (h *AdminHandlers) Topup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.AmountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := h.svc.Topup(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *AdminHandlers) Ledger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.journal == nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "journal_disabled")
			return
		}
		limit := ParseLimit(r)
		items, err := h.journal.ListLedgerEntries(r.Context(), r.URL.Query().Get("account_id"), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "limit": limit})
	}
}
