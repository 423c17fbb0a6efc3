package ws

import "sweeps-casino/internal/events"

const ProtocolVersion = "1"

// SubscribeMessage is sent by clients to follow or drop a topic. Topics are
// tournament or session ids.
type SubscribeMessage struct {
	Type        string `json:"type"`
	Topic       string `json:"topic"`
	LastEventID string `json:"last_event_id,omitempty"`
}

type SubscribeResult struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
	Topic           string `json:"topic,omitempty"`
	Replayed        int    `json:"replayed,omitempty"`
}

type EventMessage struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Event           events.Event `json:"event"`
}

type ErrorMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Error           string `json:"error"`
}
