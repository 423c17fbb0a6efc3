package notify

import (
	"context"
	"testing"
	"time"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/notify/platforms"
	"sweeps-casino/internal/tournament"
)

func TestManagerRoutesBusEvents(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Targets: []Target{
			{Platform: "record", Endpoint: "https://a", ScopeType: "game_type", ScopeValue: "poker", Enabled: true, EventAllowlist: []string{"tournament_started"}},
		},
		Workers:   1,
		RetryBase: 5 * time.Millisecond,
	}
	m := NewManager(cfg)
	adapter := &recordAdapter{}
	m.adapters = map[string]platforms.Adapter{"record": adapter}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	bus := events.NewBus(32)
	m.Attach(bus)
	bus.Publish(tournament.EventScheduled, "trn_1", tournament.ScheduledEvent{TournamentID: "trn_1", Name: "Daily", GameType: tournament.GamePoker})
	bus.Publish(tournament.EventPlayerRegistered, "trn_1", tournament.PlayerEvent{TournamentID: "trn_1", PlayerID: "p1"})
	bus.Publish(tournament.EventStarted, "trn_1", tournament.StartedEvent{TournamentID: "trn_1", Trigger: "start_time", Players: 5})
	bus.Publish(tournament.EventScheduled, "trn_2", tournament.ScheduledEvent{TournamentID: "trn_2", GameType: tournament.GameBingo})
	bus.Publish(tournament.EventStarted, "trn_2", tournament.StartedEvent{TournamentID: "trn_2", Players: 3})

	time.Sleep(80 * time.Millisecond)
	calls, last := adapter.Snapshot()
	if calls != 1 {
		t.Fatalf("expected 1 delivery, got %d", calls)
	}
	if last.EventType != tournament.EventStarted || last.Payload["tournament_id"] != "trn_1" {
		t.Fatalf("unexpected message: %+v", last)
	}
	if last.Title == "" {
		t.Fatal("expected formatted title")
	}
}

func TestManagerSkipsUnformattedEventsForChatTargets(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Targets: []Target{
			{Platform: "discord", Endpoint: "https://chat", ScopeType: "all", Enabled: true},
			{Platform: "webhook", Endpoint: "https://raw", ScopeType: "all", Enabled: true},
		},
		Workers: 1,
	}
	m := NewManager(cfg)
	m.HandleEvent(events.Event{EventID: "1", Event: tournament.EventLevelAdvanced, Topic: "trn_1", Data: tournament.LevelEvent{TournamentID: "trn_1", Level: 2}})

	if got := len(m.dispatchCh); got != 1 {
		t.Fatalf("queued = %d, want 1", got)
	}
	job := <-m.dispatchCh
	if job.Target.Platform != "webhook" || job.Event.Level != 2 {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestManagerDisabledIgnoresAttach(t *testing.T) {
	m := NewManager(Config{Enabled: false})
	bus := events.NewBus(8)
	m.Attach(bus)
	bus.Publish(tournament.EventStarted, "trn_1", tournament.StartedEvent{TournamentID: "trn_1"})
	if len(m.dispatchCh) != 0 {
		t.Fatal("disabled manager queued a job")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}
