package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"sweeps-casino/internal/app/lobby"
	"sweeps-casino/internal/events"
	"sweeps-casino/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams one tournament's events. Buffered events newer
// than Last-Event-ID are replayed first.
func EventsSSEHandler(svc *lobby.Service, bus *events.Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tournamentID := chi.URLParam(r, "id")
		if _, err := svc.Get(r.Context(), tournamentID); err != nil {
			writeServiceError(w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("tournament_id", tournamentID).
			Msg("sse stream opened")

		lastEventID := r.Header.Get("Last-Event-ID")
		if lastEventID == "" {
			lastEventID = r.URL.Query().Get("last_event_id")
		}
		// Subscribe before replaying so nothing published in between is lost.
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		high := eventSeq(lastEventID)
		for _, ev := range bus.ReplayAfter(tournamentID, lastEventID) {
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			high = eventSeq(ev.EventID)
			logSSEEvent(r, tournamentID, "replay", ev)
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Info().
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("tournament_id", tournamentID).
					Err(r.Context().Err()).
					Msg("sse stream closed")
				return
			case ev, ok := <-ch:
				if !ok {
					log.Info().
						Str("request_id", chimw.GetReqID(r.Context())).
						Str("tournament_id", tournamentID).
						Msg("sse stream channel closed")
					return
				}
				if ev.Topic != tournamentID || eventSeq(ev.EventID) <= high {
					continue
				}
				if err := WriteSSE(w, ev); err != nil {
					return
				}
				high = eventSeq(ev.EventID)
				logSSEEvent(r, tournamentID, "live", ev)
				flusher.Flush()
			case <-ticker.C:
				now := time.Now().UnixMilli()
				ping := events.Event{
					Event:    "ping",
					Topic:    tournamentID,
					ServerTS: now,
					Data:     map[string]any{"ts": now},
				}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				logSSEEvent(r, tournamentID, "ping", ping)
				flusher.Flush()
			}
		}
	}
}

// FeedHandler upgrades to the websocket feed for one tournament.
func FeedHandler(svc *lobby.Service, feed *ws.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tournamentID := chi.URLParam(r, "id")
		if _, err := svc.Get(r.Context(), tournamentID); err != nil {
			writeServiceError(w, err)
			return
		}
		feed.ServeTopic(w, r, tournamentID)
	}
}

func logSSEEvent(r *http.Request, tournamentID, source string, ev events.Event) {
	evt := log.Info()
	if ev.Event == "ping" {
		evt = log.Debug()
	}
	evt.
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("tournament_id", tournamentID).
		Str("event", ev.Event).
		Str("event_id", ev.EventID).
		Str("source", source).
		Int64("server_ts", ev.ServerTS).
		Msg("sse event sent")
}

func eventSeq(id string) int64 {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
