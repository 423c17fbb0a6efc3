// Package ws serves the live event feed over websockets. A client follows
// one or more topics (tournament or session ids) and receives every bus
// event published on them, starting with a replay of the buffered ones.
package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sweeps-casino/internal/events"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageBytes = 4096
	sendBuffer      = 64
	maxTopics       = 16
	maxTopicLen     = 128
)

type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]int64
	closed bool
}

type Server struct {
	bus      *events.Bus
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*Client]struct{}
}

func NewServer(bus *events.Bus) *Server {
	return &Server{
		bus:      bus,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  map[*Client]struct{}{},
	}
}

// Attach starts fanning bus events out to connected clients.
func (s *Server) Attach() {
	s.bus.On(events.Wildcard, s.broadcast)
}

// ServeTopic upgrades the request and subscribes the connection to topic
// when it is not empty. The last_event_id query parameter limits the replay.
func (s *Server) ServeTopic(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{conn: conn, send: make(chan []byte, sendBuffer), topics: map[string]int64{}}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	metricConnectionsTotal.Add(1)
	metricConnectionsActive.Add(1)

	go s.writeLoop(c)
	if topic != "" {
		s.subscribe(c, topic, r.URL.Query().Get("last_event_id"))
	}
	s.readLoop(c)
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.remove(c)
		_ = c.conn.Close()
		metricConnectionsActive.Add(-1)
	}()
	c.conn.SetReadLimit(maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in SubscribeMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "invalid_message")
			continue
		}
		switch in.Type {
		case "subscribe":
			s.subscribe(c, in.Topic, in.LastEventID)
		case "unsubscribe":
			s.unsubscribe(c, in.Topic)
		default:
			s.sendError(c, "unknown_type")
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			metricMessagesSent.Add(1)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// subscribe registers the topic and queues the replay under one lock so a
// concurrent publish is delivered exactly once.
func (s *Server) subscribe(c *Client, topic, lastEventID string) {
	if topic == "" || len(topic) > maxTopicLen {
		s.sendResult(c, SubscribeResult{Type: "subscribe_result", Error: "invalid_topic", Topic: topic})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.topics[topic]; !ok && len(c.topics) >= maxTopics {
		s.enqueueLocked(c, mustJSON(SubscribeResult{Type: "subscribe_result", ProtocolVersion: ProtocolVersion, Error: "too_many_topics", Topic: topic}))
		return
	}
	replay := s.bus.ReplayAfter(topic, lastEventID)
	high := parseID(lastEventID)
	if len(replay) > 0 {
		high = parseID(replay[len(replay)-1].EventID)
	}
	c.topics[topic] = high
	s.enqueueLocked(c, mustJSON(SubscribeResult{
		Type:            "subscribe_result",
		ProtocolVersion: ProtocolVersion,
		Ok:              true,
		Topic:           topic,
		Replayed:        len(replay),
	}))
	for _, ev := range replay {
		if !s.enqueueLocked(c, mustJSON(EventMessage{Type: "event", ProtocolVersion: ProtocolVersion, Event: ev})) {
			return
		}
	}
	log.Debug().Str("topic", topic).Int("replayed", len(replay)).Msg("ws topic subscribed")
}

func (s *Server) unsubscribe(c *Client, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.closed {
		return
	}
	delete(c.topics, topic)
	s.enqueueLocked(c, mustJSON(SubscribeResult{Type: "unsubscribe_result", ProtocolVersion: ProtocolVersion, Ok: true, Topic: topic}))
}

func (s *Server) broadcast(ev events.Event) {
	id := parseID(ev.EventID)
	var msg []byte
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		high, ok := c.topics[ev.Topic]
		if !ok || id <= high {
			continue
		}
		if msg == nil {
			msg = mustJSON(EventMessage{Type: "event", ProtocolVersion: ProtocolVersion, Event: ev})
		}
		c.topics[ev.Topic] = id
		s.enqueueLocked(c, msg)
	}
}

// enqueueLocked never blocks. A client that cannot keep up is disconnected.
func (s *Server) enqueueLocked(c *Client, msg []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		metricClientsDropped.Add(1)
		log.Warn().Int("topics", len(c.topics)).Msg("ws client too slow; dropping")
		s.closeLocked(c)
		return false
	}
}

func (s *Server) sendResult(c *Client, res SubscribeResult) {
	res.ProtocolVersion = ProtocolVersion
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(c, mustJSON(res))
}

func (s *Server) sendError(c *Client, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueueLocked(c, mustJSON(ErrorMessage{Type: "error", ProtocolVersion: ProtocolVersion, Error: code}))
}

func (s *Server) remove(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(c)
}

func (s *Server) closeLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	delete(s.clients, c)
	close(c.send)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.closeLocked(c)
	}
}

func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func parseID(id string) int64 {
	if id == "" {
		return 0
	}
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("ws marshal failed")
		return []byte(`{"type":"error","error":"marshal_failed"}`)
	}
	return b
}
