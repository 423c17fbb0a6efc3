package dice

import (
	"context"
	"errors"
	"testing"

	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"
)

func TestDuelPaysPotToHighestRoll(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(nil)
	g, err := New(game.Config{ID: "duel", MinPlayers: 2, MaxPlayers: 2}, 100, ledger.GC, l, nil)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.AddPlayer(game.Player{ID: "a", Balance: ledger.Amount{GC: 1000}})
	g.AddPlayer(game.Player{ID: "b", Balance: ledger.Amount{GC: 1000}})

	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "a", Type: ActionRoll, ClientSeed: "x"}); !errors.Is(err, game.ErrNotPlaying) {
		t.Fatalf("expected ErrNotPlaying before start, got %v", err)
	}
	if err := g.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "a", Type: ActionRoll, ClientSeed: "seed-a"}); err != nil {
		t.Fatalf("roll a: %v", err)
	}
	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "a", Type: ActionRoll, ClientSeed: "seed-a"}); !errors.Is(err, ErrAlreadyRolled) {
		t.Fatalf("expected ErrAlreadyRolled, got %v", err)
	}
	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "b", Type: ActionRoll, ClientSeed: "seed-b"}); err != nil {
		t.Fatalf("roll b: %v", err)
	}

	st := g.GameState().(State)
	if st.State != game.StateEnded || len(st.Winners) == 0 {
		t.Fatalf("unexpected final state %+v", st)
	}
	a, _ := l.Balance("a")
	b, _ := l.Balance("b")
	if a.GC+b.GC != 2000 {
		t.Fatalf("money not conserved: a=%d b=%d", a.GC, b.GC)
	}
	for _, r := range st.Rolls {
		if r.Face < 1 || r.Face > Faces {
			t.Fatalf("face out of range: %+v", r)
		}
	}
}

func TestStartGameRefundsWhenStakeFails(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(nil)
	g, _ := New(game.Config{MinPlayers: 2, MaxPlayers: 2}, 100, ledger.SC, l, nil)
	g.AddPlayer(game.Player{ID: "rich", Balance: ledger.Amount{SC: 500}})
	g.AddPlayer(game.Player{ID: "poor", Balance: ledger.Amount{SC: 10}})

	if err := g.StartGame(ctx); !errors.Is(err, ErrStakeFailed) {
		t.Fatalf("expected ErrStakeFailed, got %v", err)
	}
	if bal, _ := l.Balance("rich"); bal.SC != 500 {
		t.Fatalf("rich balance = %d, want refund to 500", bal.SC)
	}
	if g.State() != game.StateEnded {
		t.Fatalf("state after failed stake = %s, want ended", g.State())
	}
}

func TestStartGameNeedsMinPlayers(t *testing.T) {
	g, _ := New(game.Config{MinPlayers: 2, MaxPlayers: 4}, 1, ledger.GC, ledger.New(nil), nil)
	g.AddPlayer(game.Player{ID: "solo", Balance: ledger.Amount{GC: 10}})
	if err := g.StartGame(context.Background()); !errors.Is(err, game.ErrNotEnoughPlayer) {
		t.Fatalf("expected ErrNotEnoughPlayer, got %v", err)
	}
}

func TestLateJoinerCannotRoll(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(nil)
	g, err := New(game.Config{ID: "late", MinPlayers: 2, MaxPlayers: 3}, 100, ledger.GC, l, nil)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	g.AddPlayer(game.Player{ID: "a", Balance: ledger.Amount{GC: 1000}})
	g.AddPlayer(game.Player{ID: "b", Balance: ledger.Amount{GC: 1000}})
	if err := g.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	g.AddPlayer(game.Player{ID: "late"})

	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "a", Type: ActionRoll, ClientSeed: "seed-a"}); err != nil {
		t.Fatalf("roll a: %v", err)
	}
	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "late", Type: ActionRoll, ClientSeed: "seed-late"}); !errors.Is(err, ErrNotStaked) {
		t.Fatalf("expected ErrNotStaked, got %v", err)
	}
	if g.State() != game.StatePlaying {
		t.Fatalf("pot settled before every staked player rolled: %s", g.State())
	}
	if _, err := g.ProcessAction(ctx, game.Action{PlayerID: "b", Type: ActionRoll, ClientSeed: "seed-b"}); err != nil {
		t.Fatalf("roll b: %v", err)
	}

	st := g.GameState().(State)
	if st.State != game.StateEnded || len(st.Rolls) != 2 {
		t.Fatalf("unexpected final state %+v", st)
	}
	for _, w := range st.Winners {
		if w == "late" {
			t.Fatalf("unstaked player won the pot: %v", st.Winners)
		}
	}
	late, _ := l.Balance("late")
	a, _ := l.Balance("a")
	b, _ := l.Balance("b")
	if !late.IsZero() || a.GC+b.GC != 2000 {
		t.Fatalf("balances a=%d b=%d late=%+v", a.GC, b.GC, late)
	}
}
