package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"sweeps-casino/internal/app/lobby"
	"sweeps-casino/internal/config"
	"sweeps-casino/internal/events"
	"sweeps-casino/internal/mcpserver"
	"sweeps-casino/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators behind the HTTP surface. DB and Journal may be
// nil; pass an untyped nil, not a nil *store.Store.
type Deps struct {
	Lobby    *lobby.Service
	Bus      *events.Bus
	Feed     *ws.Server
	Gatherer prometheus.Gatherer
	DB       Pinger
	Journal  LedgerReader
}

func NewRouter(cfg config.ServerConfig, d Deps) *chi.Mux {
	public := NewTournamentHandlers(d.Lobby)
	admin := NewAdminHandlers(d.Lobby, d.DB, d.Journal)
	mcpSrv := mcpserver.New(d.Lobby, "")
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", admin.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/tournaments", public.List())
		r.Get("/tournaments/{id}", public.Get())
		r.Get("/tournaments/{id}/leaderboard", public.Leaderboard())
		r.Get("/tournaments/{id}/events", EventsSSEHandler(d.Lobby, d.Bus))
		if d.Feed != nil {
			r.Get("/tournaments/{id}/ws", FeedHandler(d.Lobby, d.Feed))
		}
		r.Post("/tournaments/{id}/register", public.Register())
		r.Post("/tournaments/{id}/unregister", public.Unregister())
		r.Post("/tournaments/{id}/rebuy", public.Rebuy())
		r.Post("/tournaments/{id}/addon", public.Addon())
		r.Post("/fairness/verify", public.VerifyFairness())
		r.Get("/players/{id}/balance", public.Balance())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Post("/tournaments", admin.Create())
			r.Post("/tournaments/{id}/start", admin.Start())
			r.Post("/tournaments/{id}/cancel", admin.Cancel())
			r.Post("/tournaments/{id}/finish", admin.Finish())
			r.Post("/tournaments/{id}/advance", admin.Advance())
			r.Post("/tournaments/{id}/chips", admin.Chips())
			r.Post("/tournaments/{id}/eliminate", admin.Eliminate())
			r.Post("/players/{id}/topup", admin.Topup())
			r.Get("/ledger", admin.Ledger())
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
