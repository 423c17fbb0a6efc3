package httptransport

import (
	"errors"
	"net/http"

	"sweeps-casino/internal/app/lobby"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type TournamentHandlers struct {
	svc *lobby.Service
}

func NewTournamentHandlers(svc *lobby.Service) *TournamentHandlers {
	return &TournamentHandlers{svc: svc}
}

func (h *TournamentHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		resp, err := h.svc.List(r.Context(), q.Get("game_type"), q.Get("status"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TournamentHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TournamentHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Leaderboard(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TournamentHandlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		metricRegisterTotal.Add(1)
		resp := h.svc.Register(r.Context(), chi.URLParam(r, "id"), req)
		if !resp.Success {
			metricRegisterErrors.Add(1)
		}
		writeAction(w, resp)
	}
}

func (h *TournamentHandlers) Unregister() http.HandlerFunc {
	return h.playerAction(h.svc.Unregister)
}

func (h *TournamentHandlers) Rebuy() http.HandlerFunc {
	return h.playerAction(h.svc.Rebuy)
}

func (h *TournamentHandlers) Addon() http.HandlerFunc {
	return h.playerAction(h.svc.Addon)
}

func (h *TournamentHandlers) playerAction(fn playerActionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.PlayerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		writeAction(w, fn(r.Context(), chi.URLParam(r, "id"), req))
	}
}

func (h *TournamentHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Balance(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *TournamentHandlers) VerifyFairness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lobby.VerifyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		metricFairnessVerifyTotal.Add(1)
		resp, err := h.svc.VerifyFairness(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// writeAction answers 200 on success, 404 when the tournament is unknown
// and 409 for every other rejection.
func writeAction(w http.ResponseWriter, resp *lobby.ActionResponse) {
	status := http.StatusOK
	switch {
	case resp.NotFound:
		status = http.StatusNotFound
	case !resp.Success:
		status = http.StatusConflict
	}
	writeJSON(w, status, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, lobby.ErrTournamentNotFound):
		WriteHTTPError(w, http.StatusNotFound, "tournament_not_found")
	case errors.Is(err, lobby.ErrAccountNotFound):
		WriteHTTPError(w, http.StatusNotFound, "account_not_found")
	default:
		log.Error().Err(err).Msg("request failed")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
