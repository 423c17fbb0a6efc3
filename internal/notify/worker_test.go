package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sweeps-casino/internal/notify/platforms"
)

type recordAdapter struct {
	mu    sync.Mutex
	calls int
	fail  bool
	last  platforms.Message
}

func (a *recordAdapter) Name() string { return "record" }

func (a *recordAdapter) Send(_ context.Context, _ string, _ string, msg platforms.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.last = msg
	if a.fail {
		return errors.New("failed")
	}
	return nil
}

func (a *recordAdapter) Snapshot() (int, platforms.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls, a.last
}

func testTarget(platform string) Target {
	return Target{Platform: platform, Endpoint: "https://example.com", ScopeType: "all", Enabled: true}
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	cfg := Config{
		Enabled:   true,
		Targets:   []Target{testTarget("record")},
		Workers:   1,
		RetryMax:  1,
		RetryBase: 5 * time.Millisecond,
	}
	m := NewManager(cfg)
	adapter := &recordAdapter{fail: true}
	m.adapters = map[string]platforms.Adapter{"record": adapter}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	if !m.enqueue(pushJob{Target: cfg.Targets[0], Formatted: FormattedMessage{Title: "x"}}) {
		t.Fatal("enqueue failed")
	}
	time.Sleep(120 * time.Millisecond)
	if got, _ := adapter.Snapshot(); got != 2 {
		t.Fatalf("expected 2 calls (initial + 1 retry), got %d", got)
	}
}

func TestCircuitOpenSkipsSubsequentSends(t *testing.T) {
	cfg := Config{
		Enabled:             true,
		Targets:             []Target{testTarget("record")},
		Workers:             1,
		RetryMax:            0,
		RetryBase:           5 * time.Millisecond,
		FailureThreshold:    1,
		CircuitOpenDuration: 500 * time.Millisecond,
	}
	m := NewManager(cfg)
	adapter := &recordAdapter{fail: true}
	m.adapters = map[string]platforms.Adapter{"record": adapter}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	job := pushJob{Target: cfg.Targets[0], Formatted: FormattedMessage{Title: "x"}}
	if !m.enqueue(job) {
		t.Fatal("enqueue first failed")
	}
	time.Sleep(40 * time.Millisecond)
	if !m.enqueue(job) {
		t.Fatal("enqueue second failed")
	}
	time.Sleep(80 * time.Millisecond)

	if got, _ := adapter.Snapshot(); got != 1 {
		t.Fatalf("expected 1 call due to circuit open, got %d", got)
	}
}

func TestRetryDelayDoubles(t *testing.T) {
	m := NewManager(Config{RetryBase: 100 * time.Millisecond})
	if got := m.retryDelay(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1 delay = %v", got)
	}
	if got := m.retryDelay(3); got != 400*time.Millisecond {
		t.Fatalf("attempt 3 delay = %v", got)
	}
	if got := m.retryDelay(20); got != time.Minute {
		t.Fatalf("attempt 20 delay = %v", got)
	}
}
