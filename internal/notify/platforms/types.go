package platforms

import "context"

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message carries both renderings of an event: the chat embed fields and
// the raw Payload for machine consumers.
type Message struct {
	EventID     string
	EventType   string
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
	Payload     map[string]any
}

type Adapter interface {
	Name() string
	Send(ctx context.Context, endpoint, secret string, msg Message) error
}
