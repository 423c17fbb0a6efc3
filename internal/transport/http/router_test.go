package httptransport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sweeps-casino/internal/app/lobby"
	"sweeps-casino/internal/config"
	"sweeps-casino/internal/events"
	"sweeps-casino/internal/fairness"
	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/tournament"
	"sweeps-casino/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

const testAdminKey = "secret"

type testEnv struct {
	router *chi.Mux
	svc    *lobby.Service
	bus    *events.Bus
}

func newTestEnv(t *testing.T, deps Deps) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	l := ledger.New(nil)
	bus := events.NewBus(100)
	reg := prometheus.NewRegistry()
	sched, err := tournament.NewScheduler(l, tournament.Options{
		Clock:     clock,
		Publisher: bus,
		Metrics:   tournament.NewMetrics(reg),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	svc := lobby.NewService(sched, l)
	feed := ws.NewServer(bus)
	feed.Attach()
	t.Cleanup(feed.Close)

	deps.Lobby = svc
	deps.Bus = bus
	deps.Feed = feed
	deps.Gatherer = reg
	return &testEnv{
		router: NewRouter(config.ServerConfig{AdminAPIKey: testAdminKey}, deps),
		svc:    svc,
		bus:    bus,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Key", testAdminKey)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) fund(t *testing.T, playerID string, gc, sc int64) {
	t.Helper()
	if _, err := e.svc.Topup(context.Background(), playerID, lobby.AmountRequest{GC: gc, SC: sc}); err != nil {
		t.Fatalf("topup %s: %v", playerID, err)
	}
}

func (e *testEnv) createSNG(t *testing.T, maxPlayers int) string {
	t.Helper()
	view, err := e.svc.Create(context.Background(), lobby.CreateRequest{
		Name:       "Hourly SNG",
		GameType:   "poker",
		Type:       "sit_and_go",
		BuyIn:      &lobby.AmountRequest{GC: 100, SC: 1},
		MinPlayers: 2,
		MaxPlayers: maxPlayers,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return view.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAdminRoutesRequireKey(t *testing.T) {
	env := newTestEnv(t, Deps{})
	body := `{"name":"Nightly","game_type":"slots","type":"sit_and_go","min_players":2,"max_players":6}`

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/tournaments"},
		{http.MethodPost, "/api/tournaments/x/start"},
		{http.MethodPost, "/api/tournaments/x/finish"},
		{http.MethodPost, "/api/players/p1/topup"},
		{http.MethodGet, "/api/debug/vars"},
	}
	for _, tt := range tests {
		if rec := env.do(t, tt.method, tt.path, body, false); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without key = %d, want 401", tt.method, tt.path, rec.Code)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/tournaments", body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["status"] != string(tournament.StatusRegistering) || out["slug"] == "" {
		t.Fatalf("unexpected create body: %v", out)
	}
}

func TestBearerTokenAcceptedForAdmin(t *testing.T) {
	env := newTestEnv(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/debug/vars", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("debug vars = %d", rec.Code)
	}
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t, Deps{})
	if rec := env.do(t, http.MethodPost, "/api/tournaments", `{`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed json = %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/tournaments", `{"name":"x","game_type":"chess","type":"sit_and_go"}`, true)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["error"] != "invalid_request" {
		t.Fatalf("invalid game type = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterStatusCodes(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 3)

	env.fund(t, "p1", 1000, 10)
	env.fund(t, "p2", 10, 0)
	rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/register", `{"player_id":"p1","name":"Ann"}`, false)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["success"] != true {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/tournaments/"+id+"/register", `{"player_id":"p1","name":"Ann"}`, false)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["success"] != false || out["error"] != tournament.ReasonAlreadyRegistered {
		t.Fatalf("unexpected duplicate body: %v", out)
	}

	rec = env.do(t, http.MethodPost, "/api/tournaments/"+id+"/register", `{"player_id":"p2","name":"Bob"}`, false)
	if rec.Code != http.StatusConflict || decodeBody(t, rec)["error"] != tournament.ReasonInsufficientBalance {
		t.Fatalf("broke register = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/tournaments/missing/register", `{"player_id":"p1"}`, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown tournament = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/tournaments/"+id+"/unregister", `{"player_id":"p1"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("unregister = %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/players/p1/balance", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance = %d", rec.Code)
	}
	bal := decodeBody(t, rec)["balance"].(map[string]any)
	if bal["gc"] != float64(1000) || bal["sc"] != float64(10) {
		t.Fatalf("refund not applied: %v", bal)
	}
}

func TestRegisterIgnoresBodyBalance(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 3)

	rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/register", `{"player_id":"p9","balance":{"gc":1000000,"sc":1000}}`, false)
	if rec.Code != http.StatusConflict || decodeBody(t, rec)["error"] != tournament.ReasonInsufficientBalance {
		t.Fatalf("self-funded register = %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/players/p9/balance", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance = %d", rec.Code)
	}
	bal := decodeBody(t, rec)["balance"].(map[string]any)
	if bal["gc"] != float64(0) || bal["sc"] != float64(0) {
		t.Fatalf("body balance credited the account: %v", bal)
	}
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 4)

	rec := env.do(t, http.MethodGet, "/api/tournaments?status=registering&game_type=poker", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	items := decodeBody(t, rec)["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["id"] != id {
		t.Fatalf("unexpected list: %v", items)
	}
	if rec := env.do(t, http.MethodGet, "/api/tournaments?status=bogus", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/tournaments/"+id, "", false); rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/tournaments/missing", "", false)
	if rec.Code != http.StatusNotFound || decodeBody(t, rec)["error"] != "tournament_not_found" {
		t.Fatalf("get missing = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/api/tournaments/"+id+"/leaderboard", "", false); rec.Code != http.StatusOK {
		t.Fatalf("leaderboard = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/players/ghost/balance", "", false); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown balance = %d", rec.Code)
	}
}

func TestAdminLifecycle(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 4)
	for _, p := range []string{"p1", "p2", "p3"} {
		env.fund(t, p, 500, 5)
		rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/register", `{"player_id":"`+p+`"}`, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("register %s = %d", p, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/start", "", true); rec.Code != http.StatusOK {
		t.Fatalf("start = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/start", "", true); rec.Code != http.StatusConflict {
		t.Fatalf("second start = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/chips", `{"player_id":"p1","chips":4200}`, true); rec.Code != http.StatusOK {
		t.Fatalf("chips = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/eliminate", `{"player_id":"p3"}`, true); rec.Code != http.StatusOK {
		t.Fatalf("eliminate = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/eliminate", `{"player_id":"p3"}`, true); rec.Code != http.StatusConflict {
		t.Fatalf("second eliminate = %d", rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/finish", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("finish = %d %s", rec.Code, rec.Body.String())
	}
	view := decodeBody(t, rec)["tournament"].(map[string]any)
	if view["status"] != string(tournament.StatusFinished) || view["result"] == nil {
		t.Fatalf("unexpected finished view: %v", view)
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/"+id+"/finish", "", true); rec.Code != http.StatusConflict {
		t.Fatalf("finish again = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/tournaments/missing/cancel", "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("cancel missing = %d", rec.Code)
	}
}

func TestTopupCreditsAccount(t *testing.T) {
	env := newTestEnv(t, Deps{})
	rec := env.do(t, http.MethodPost, "/api/players/p9/topup", `{"gc":250,"sc":3}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("topup = %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/players/p9/topup", `{"gc":0}`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero topup = %d", rec.Code)
	}
}

func TestVerifyFairnessEndpoint(t *testing.T) {
	env := newTestEnv(t, Deps{})
	seed := strings.Repeat("ab", 32)
	v, err := fairness.Derive(seed, "lucky", 3, 37)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	body, _ := json.Marshal(lobby.VerifyRequest{ServerSeed: seed, Commitment: fairness.Commit(seed), ClientSeed: "lucky", Nonce: 3, Max: 37, Value: v})
	rec := env.do(t, http.MethodPost, "/api/fairness/verify", string(body), false)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["valid"] != true {
		t.Fatalf("verify = %d %s", rec.Code, rec.Body.String())
	}

	body, _ = json.Marshal(lobby.VerifyRequest{ServerSeed: seed, ClientSeed: "lucky", Nonce: 3, Max: 37, Value: (v + 1) % 37})
	rec = env.do(t, http.MethodPost, "/api/fairness/verify", string(body), false)
	if out := decodeBody(t, rec); out["valid"] != false || out["reason"] != fairness.ErrOutcomeMismatch.Error() {
		t.Fatalf("tampered verify = %v", out)
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeJournal struct{ entries []ledger.Entry }

func (f fakeJournal) ListLedgerEntries(_ context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	out := []ledger.Entry{}
	for _, e := range f.entries {
		if accountID == "" || e.AccountID == accountID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, Deps{})
	rec := env.do(t, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["db"] != "disabled" {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}

	down := newTestEnv(t, Deps{DB: fakePinger{err: errors.New("refused")}})
	if rec := down.do(t, http.MethodGet, "/healthz", "", false); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz with db down = %d", rec.Code)
	}

	env.createSNG(t, 4)
	rec = env.do(t, http.MethodGet, "/metrics", "", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "tournament") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

func TestLedgerEndpoint(t *testing.T) {
	env := newTestEnv(t, Deps{})
	if rec := env.do(t, http.MethodGet, "/api/ledger", "", true); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ledger without journal = %d", rec.Code)
	}

	j := fakeJournal{entries: []ledger.Entry{
		{AccountID: "p1", Type: "buyin_debit"},
		{AccountID: "p2", Type: "buyin_debit"},
		{AccountID: "p1", Type: "payout_credit"},
	}}
	env = newTestEnv(t, Deps{Journal: j})
	rec := env.do(t, http.MethodGet, "/api/ledger?account_id=p1&limit=1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger = %d", rec.Code)
	}
	out := decodeBody(t, rec)
	if items := out["items"].([]any); len(items) != 1 || out["limit"] != float64(1) {
		t.Fatalf("unexpected ledger page: %v", out)
	}
}

func TestEventsSSEReplaysAndStreams(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 4)
	ctx := context.Background()
	env.fund(t, "p1", 500, 5)
	env.fund(t, "p2", 500, 5)
	env.svc.Register(ctx, id, lobby.RegisterRequest{PlayerID: "p1"})

	hs := httptest.NewServer(env.router)
	defer hs.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, hs.URL+"/api/tournaments/"+id+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	rd := bufio.NewReader(resp.Body)
	waitFor := func(name string) {
		t.Helper()
		for {
			line, err := rd.ReadString('\n')
			if err != nil {
				t.Fatalf("waiting for %s: %v", name, err)
			}
			if strings.TrimSpace(line) == "event: "+name {
				return
			}
		}
	}
	waitFor(tournament.EventPlayerRegistered)

	env.svc.Register(ctx, id, lobby.RegisterRequest{PlayerID: "p2"})
	env.bus.Publish("noise", "other-topic", nil)
	env.svc.Unregister(ctx, id, lobby.PlayerRequest{PlayerID: "p2"})
	waitFor(tournament.EventPlayerRegistered)
	waitFor(tournament.EventPlayerUnregistered)
}

func TestEventsSSEUnknownTournament(t *testing.T) {
	env := newTestEnv(t, Deps{})
	if rec := env.do(t, http.MethodGet, "/api/tournaments/missing/events", "", false); rec.Code != http.StatusNotFound {
		t.Fatalf("events for unknown tournament = %d", rec.Code)
	}
}

func TestFeedRoute(t *testing.T) {
	env := newTestEnv(t, Deps{})
	id := env.createSNG(t, 4)
	hs := httptest.NewServer(env.router)
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/api/tournaments/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack ws.SubscribeResult
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if !ack.Ok || ack.Topic != id {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http")+"/api/tournaments/missing/ws", nil); err == nil {
		t.Fatalf("expected handshake failure for unknown tournament")
	}
}

func TestMCPPreflight(t *testing.T) {
	env := newTestEnv(t, Deps{})
	rec := env.do(t, http.MethodOptions, "/mcp", "", false)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("options /mcp = %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); !strings.Contains(allow, "POST") {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}
