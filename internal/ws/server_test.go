package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sweeps-casino/internal/events"
)

func newFeed(t *testing.T, topic string) (*events.Bus, *Server, string) {
	t.Helper()
	bus := events.NewBus(100)
	srv := NewServer(bus)
	srv.Attach()
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.ServeTopic(w, r, topic)
	}))
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})
	return bus, srv, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func eventName(t *testing.T, msg map[string]any) string {
	t.Helper()
	if msg["type"] != "event" {
		t.Fatalf("expected event message, got %v", msg)
	}
	ev, _ := msg["event"].(map[string]any)
	name, _ := ev["event"].(string)
	return name
}

func TestServeTopicReplaysThenStreams(t *testing.T) {
	bus, _, url := newFeed(t, "t1")
	bus.Publish("player_registered", "t1", map[string]any{"player_id": "p1"})
	bus.Publish("player_registered", "t2", nil)

	conn := dial(t, url)
	ack := readJSON(t, conn)
	if ack["type"] != "subscribe_result" || ack["ok"] != true || ack["replayed"] != float64(1) {
		t.Fatalf("unexpected ack: %v", ack)
	}
	if got := eventName(t, readJSON(t, conn)); got != "player_registered" {
		t.Fatalf("expected replayed player_registered, got %q", got)
	}

	bus.Publish("level_advanced", "t2", nil)
	bus.Publish("tournament_started", "t1", nil)
	if got := eventName(t, readJSON(t, conn)); got != "tournament_started" {
		t.Fatalf("expected live tournament_started, got %q", got)
	}
}

func TestServeTopicHonoursLastEventID(t *testing.T) {
	bus, _, url := newFeed(t, "t1")
	first := bus.Publish("player_registered", "t1", nil)
	bus.Publish("tournament_started", "t1", nil)

	conn := dial(t, url+"?last_event_id="+first.EventID)
	ack := readJSON(t, conn)
	if ack["replayed"] != float64(1) {
		t.Fatalf("expected one replayed event, got %v", ack)
	}
	if got := eventName(t, readJSON(t, conn)); got != "tournament_started" {
		t.Fatalf("unexpected replay %q", got)
	}
}

func TestSubscribeAndUnsubscribeMessages(t *testing.T) {
	bus, _, url := newFeed(t, "")
	conn := dial(t, url)

	if err := conn.WriteJSON(SubscribeMessage{Type: "subscribe", Topic: "t9"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ack := readJSON(t, conn); ack["ok"] != true || ack["topic"] != "t9" {
		t.Fatalf("unexpected ack: %v", ack)
	}
	bus.Publish("tournament_break", "t9", nil)
	if got := eventName(t, readJSON(t, conn)); got != "tournament_break" {
		t.Fatalf("unexpected event %q", got)
	}

	if err := conn.WriteJSON(SubscribeMessage{Type: "unsubscribe", Topic: "t9"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ack := readJSON(t, conn); ack["type"] != "unsubscribe_result" {
		t.Fatalf("unexpected ack: %v", ack)
	}
	bus.Publish("level_advanced", "t9", nil)
	if err := conn.WriteJSON(SubscribeMessage{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readJSON(t, conn); msg["type"] != "error" || msg["error"] != "unknown_type" {
		t.Fatalf("expected unknown_type error after unsubscribe, got %v", msg)
	}
}

func TestSubscribeRejectsBadInput(t *testing.T) {
	_, _, url := newFeed(t, "")
	conn := dial(t, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readJSON(t, conn); msg["error"] != "invalid_message" {
		t.Fatalf("expected invalid_message, got %v", msg)
	}
	if err := conn.WriteJSON(SubscribeMessage{Type: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readJSON(t, conn); msg["error"] != "invalid_topic" {
		t.Fatalf("expected invalid_topic, got %v", msg)
	}
}

func TestBroadcastSkipsAlreadyDelivered(t *testing.T) {
	bus := events.NewBus(10)
	srv := NewServer(bus)
	c := &Client{send: make(chan []byte, 4), topics: map[string]int64{"t1": 5}}
	srv.clients[c] = struct{}{}

	srv.broadcast(events.Event{EventID: "5", Event: "dup", Topic: "t1"})
	srv.broadcast(events.Event{EventID: "6", Event: "fresh", Topic: "t1"})
	srv.broadcast(events.Event{EventID: "7", Event: "other", Topic: "t2"})

	if len(c.send) != 1 {
		t.Fatalf("expected one queued message, got %d", len(c.send))
	}
	if c.topics["t1"] != 6 {
		t.Fatalf("high-water mark not advanced: %d", c.topics["t1"])
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	srv := NewServer(events.NewBus(10))
	c := &Client{send: make(chan []byte, 1), topics: map[string]int64{"t1": 0}}
	srv.clients[c] = struct{}{}

	srv.broadcast(events.Event{EventID: "1", Topic: "t1"})
	srv.broadcast(events.Event{EventID: "2", Topic: "t1"})

	if srv.ClientCount() != 0 || !c.closed {
		t.Fatalf("expected slow client to be dropped")
	}
}
