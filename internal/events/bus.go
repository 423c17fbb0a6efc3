// Package events is the in-process event bus shared by game sessions and
// the tournament scheduler. Every published event is kept in a bounded
// ring for replay, fanned out to channel subscribers and handed to named
// callbacks.
package events

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Wildcard registers a callback for every event name.
const Wildcard = "*"

type Event struct {
	EventID  string `json:"event_id"`
	Event    string `json:"event"`
	Topic    string `json:"topic"`
	ServerTS int64  `json:"server_ts"`
	Data     any    `json:"data"`
}

type Handler func(Event)

// Publisher is what emitters depend on.
type Publisher interface {
	Publish(event, topic string, data any) Event
}

type Bus struct {
	mu       sync.Mutex
	nextID   int64
	max      int
	events   []Event
	watchers map[chan Event]struct{}
	handlers map[string][]Handler
	closed   bool
	now      func() time.Time
}

func NewBus(max int) *Bus {
	if max <= 0 {
		max = 500
	}
	return &Bus{
		max:      max,
		watchers: map[chan Event]struct{}{},
		handlers: map[string][]Handler{},
		now:      time.Now,
	}
}

// On registers fn for events named name, or for all events with Wildcard.
func (b *Bus) On(name string, fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], fn)
}

func (b *Bus) Publish(event, topic string, data any) Event {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Event{}
	}
	b.nextID++
	ev := Event{
		EventID:  strconv.FormatInt(b.nextID, 10),
		Event:    event,
		Topic:    topic,
		ServerTS: b.now().UnixMilli(),
		Data:     data,
	}
	b.events = append(b.events, ev)
	if len(b.events) > b.max {
		b.events = b.events[len(b.events)-b.max:]
	}
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
	handlers := make([]Handler, 0, len(b.handlers[event])+len(b.handlers[Wildcard]))
	handlers = append(handlers, b.handlers[event]...)
	handlers = append(handlers, b.handlers[Wildcard]...)
	b.mu.Unlock()

	for _, fn := range handlers {
		dispatch(fn, ev)
	}
	return ev
}

func dispatch(fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("event", ev.Event).
				Str("topic", ev.Topic).
				Msg("event handler panicked")
		}
	}()
	fn(ev)
}

// ReplayAfter returns buffered events newer than lastEventID. An empty topic
// matches every event.
func (b *Bus) ReplayAfter(topic, lastEventID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var last int64
	if lastEventID != "" {
		if v, err := strconv.ParseInt(lastEventID, 10, 64); err == nil {
			last = v
		}
	}
	out := make([]Event, 0, len(b.events))
	for _, ev := range b.events {
		if topic != "" && ev.Topic != topic {
			continue
		}
		id, _ := strconv.ParseInt(ev.EventID, 10, 64)
		if id > last {
			out = append(out, ev)
		}
	}
	return out
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.watchers[ch] = struct{}{}
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchers[ch]; ok {
		delete(b.watchers, ch)
		close(ch)
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		close(ch)
		delete(b.watchers, ch)
	}
}

type discard struct{}

func (discard) Publish(event, topic string, data any) Event {
	return Event{Event: event, Topic: topic, Data: data}
}

// Discard drops every event.
var Discard Publisher = discard{}
