// Package notify pushes tournament lifecycle events to outbound webhooks.
package notify

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/notify/platforms"
)

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter

	dispatchCh chan pushJob
	retryQ     *retryQueue
	done       chan struct{}

	mu           sync.Mutex
	started      bool
	gameTypes    map[string]string
	breakerByKey map[string]breakerState
}

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"webhook": platforms.NewWebhookAdapter(client),
		"discord": platforms.NewDiscordAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 2048
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:          cfg,
		router:       Router{},
		adapters:     adapters,
		dispatchCh:   make(chan pushJob, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		gameTypes:    map[string]string{},
		breakerByKey: map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.TargetsPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	return nil
}

// Attach routes every event published on r through the manager.
func (m *Manager) Attach(r Registrar) {
	if !m.cfg.Enabled {
		return
	}
	r.On(events.Wildcard, m.HandleEvent)
}

// HandleEvent queues deliveries for ev. It never blocks the publisher.
func (m *Manager) HandleEvent(ev events.Event) {
	if ev.Event == "" || ev.Event == "ping" {
		return
	}
	norm := m.normalize(ev)
	targets := m.router.MatchTargets(m.currentTargets(), norm)
	if len(targets) == 0 {
		return
	}

	formatted, formattedOK := FormatMessage(norm)
	for _, target := range targets {
		if target.Platform != "webhook" && !formattedOK {
			continue
		}
		job := pushJob{Target: target, Event: norm, Formatted: formatted}
		if !m.enqueue(job) {
			metricNotifyDroppedTotal.Add(1)
		}
	}
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricNotifyQueuedTotal.Add(1)
		metricNotifyQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

// normalize flattens ev and tracks the game type of each tournament, which
// only the scheduled event carries.
func (m *Manager) normalize(ev events.Event) Notification {
	raw := asMap(ev.Data)
	tournamentID := stringField(raw, "tournament_id")
	if tournamentID == "" {
		tournamentID = ev.Topic
	}

	gameType := stringField(raw, "game_type")
	m.mu.Lock()
	if gameType != "" {
		m.gameTypes[tournamentID] = gameType
	} else {
		gameType = m.gameTypes[tournamentID]
	}
	if ev.Event == "tournament_finished" || ev.Event == "tournament_cancelled" {
		delete(m.gameTypes, tournamentID)
	}
	m.mu.Unlock()

	n := Notification{
		EventID:      ev.EventID,
		EventType:    ev.Event,
		ServerTS:     ev.ServerTS,
		TournamentID: tournamentID,
		GameType:     gameType,
		PlayerID:     stringField(raw, "player_id"),
		Status:       stringField(raw, "status"),
		Reason:       stringField(raw, "reason"),
		Raw:          raw,
	}
	if v := intValue(raw, "level"); v != nil {
		n.Level = *v
	}
	if v := intValue(raw, "position"); v != nil {
		n.Position = *v
	}
	if v := intValue(raw, "players"); v != nil {
		n.Players = *v
	}
	return n
}

func (m *Manager) currentTargets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.TargetsPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.TargetsPath)
			if err != nil {
				metricNotifyConfigReloadError.Add(1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargetsJSON(nextRaw)
			if err != nil {
				metricNotifyConfigReloadError.Add(1)
				continue
			}
			m.mu.Lock()
			m.cfg.Targets = targets
			m.mu.Unlock()
			lastRaw = nextRaw
			metricNotifyConfigReloadTotal.Add(1)
		}
	}
}

func asMap(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return ""
}

func intValue(m map[string]any, key string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case float64:
		x := int(vv)
		return &x
	case int:
		x := vv
		return &x
	case int64:
		x := int(vv)
		return &x
	}
	return nil
}
