package notify

import (
	"time"

	"sweeps-casino/internal/events"
)

// Registrar is satisfied by events.Bus.
type Registrar interface {
	On(name string, fn events.Handler)
}

type Target struct {
	Platform       string   `json:"platform"`
	Endpoint       string   `json:"endpoint"`
	Secret         string   `json:"secret"`
	ScopeType      string   `json:"scope_type"`
	ScopeValue     string   `json:"scope_value"`
	EventAllowlist []string `json:"event_allowlist"`
	Enabled        bool     `json:"enabled"`
}

type Config struct {
	Enabled             bool
	TargetsPath         string
	ConfigReload        time.Duration
	Targets             []Target
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

// Notification is a bus event flattened into the fields routing and
// formatting look at.
type Notification struct {
	EventID      string
	EventType    string
	ServerTS     int64
	TournamentID string
	GameType     string
	PlayerID     string
	Status       string
	Reason       string
	Level        int
	Position     int
	Players      int
	Raw          map[string]any
}

type MessageField struct {
	Name   string
	Value  string
	Inline bool
}

type FormattedMessage struct {
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []MessageField
}

type pushJob struct {
	Target    Target
	Event     Notification
	Formatted FormattedMessage
	Attempt   int
}

func (j pushJob) key() string {
	return targetKey(j.Target)
}

func targetKey(t Target) string {
	return t.Platform + "|" + t.Endpoint + "|" + t.ScopeType + "|" + t.ScopeValue
}
