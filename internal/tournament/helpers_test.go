package tournament

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type fakeJob struct {
	name  string
	at    time.Time
	every time.Duration
	fn    func()
}

type fakeTimers struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]fakeJob
	started bool
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{jobs: map[uuid.UUID]fakeJob{}}
}

func (f *fakeTimers) Every(name string, interval time.Duration, fn func()) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.jobs[id] = fakeJob{name: name, every: interval, fn: fn}
	return id, nil
}

func (f *fakeTimers) At(name string, at time.Time, fn func()) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.jobs[id] = fakeJob{name: name, at: at, fn: fn}
	return id, nil
}

func (f *fakeTimers) Cancel(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, id)
}

func (f *fakeTimers) Start() {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
}

func (f *fakeTimers) Shutdown() error { return nil }

// fire runs and removes every one-shot job whose name starts with prefix.
func (f *fakeTimers) fire(prefix string) int {
	f.mu.Lock()
	var fns []func()
	for id, j := range f.jobs {
		if j.every == 0 && strings.HasPrefix(j.name, prefix) {
			fns = append(fns, j.fn)
			delete(f.jobs, id)
		}
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func (f *fakeTimers) pending(prefix string) []fakeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeJob
	for _, j := range f.jobs {
		if strings.HasPrefix(j.name, prefix) {
			out = append(out, j)
		}
	}
	return out
}

type harness struct {
	s      *Scheduler
	clock  *clockwork.FakeClock
	ledger *ledger.Ledger
	bus    *events.Bus
	timers *fakeTimers
	repo   *MemoryRepository
}

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  clockwork.NewFakeClockAt(t0),
		ledger: ledger.New(nil),
		bus:    events.NewBus(1000),
		timers: newFakeTimers(),
		repo:   NewMemoryRepository(),
	}
	s, err := NewScheduler(h.ledger, Options{
		Clock:       h.clock,
		Location:    time.UTC,
		Timers:      h.timers,
		Repository:  h.repo,
		Publisher:   h.bus,
		SettleDelay: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	h.s = s
	return h
}

func (h *harness) create(t *testing.T, cfg Config) *Tournament {
	t.Helper()
	tr, err := h.s.Create(context.Background(), cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return tr
}

func (h *harness) register(t *testing.T, id, playerID string, bal ledger.Amount) {
	t.Helper()
	res := h.s.Register(context.Background(), id, game.Player{ID: playerID, Name: playerID, Balance: bal})
	if !res.Success {
		t.Fatalf("register %s: %s", playerID, res.Error)
	}
}

func (h *harness) get(t *testing.T, id string) *Tournament {
	t.Helper()
	tr, ok := h.s.Get(id)
	if !ok {
		t.Fatalf("tournament %s not found", id)
	}
	return tr
}

func (h *harness) count(topic, name string) int {
	n := 0
	for _, ev := range h.bus.ReplayAfter(topic, "") {
		if ev.Event == name {
			n++
		}
	}
	return n
}

func scheduledConfig(start time.Time) Config {
	return Config{
		Name:       "Tuesday Turbo",
		GameType:   GamePoker,
		Type:       TypeScheduled,
		BuyIn:      ledger.Amount{GC: 1000, SC: 10},
		MaxPlayers: 20,
		Schedule:   Schedule{StartTime: start},
	}
}
