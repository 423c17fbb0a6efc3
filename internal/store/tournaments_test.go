package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/store"
	"sweeps-casino/internal/testutil"
	"sweeps-casino/internal/tournament"
)

func sampleTournament(id string, version int64, status tournament.Status) *tournament.Tournament {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &tournament.Tournament{
		ID:         id,
		Slug:       "daily-" + id,
		Name:       "Daily " + id,
		GameType:   tournament.GamePoker,
		Type:       tournament.TypeScheduled,
		Status:     status,
		BuyIn:      ledger.Amount{GC: 1000, SC: 10},
		PrizePool:  ledger.Amount{GC: 2000, SC: 20},
		MinPlayers: 2,
		MaxPlayers: 10,
		CreatedAt:  created,
		Version:    version,
	}
}

func TestTournamentRepositorySaveGet(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.NewTournamentRepository(st)

	if err := repo.Save(ctx, sampleTournament("t1", 2, tournament.StatusRegistering)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, sampleTournament("t1", 1, tournament.StatusCancelled)); err != nil {
		t.Fatalf("save stale: %v", err)
	}
	got, err := repo.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != tournament.StatusRegistering || got.Version != 2 {
		t.Fatalf("stale snapshot overwrote newer one: %+v", got)
	}
	if got.PrizePool != (ledger.Amount{GC: 2000, SC: 20}) {
		t.Fatalf("prize pool = %+v", got.PrizePool)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, tournament.ErrNotFound) {
		t.Fatalf("expected tournament.ErrNotFound, got %v", err)
	}
}

func TestTournamentRepositoryListFilterDelete(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.NewTournamentRepository(st)

	_ = repo.Save(ctx, sampleTournament("a", 1, tournament.StatusRegistering))
	_ = repo.Save(ctx, sampleTournament("b", 1, tournament.StatusPlaying))

	all, err := repo.List(ctx, tournament.Filter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("list all = %d, %v", len(all), err)
	}
	playing, err := repo.List(ctx, tournament.Filter{Status: tournament.StatusPlaying})
	if err != nil || len(playing) != 1 || playing[0].ID != "b" {
		t.Fatalf("list playing = %+v, %v", playing, err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, _ = repo.List(ctx, tournament.Filter{})
	if len(all) != 1 {
		t.Fatalf("after delete = %d", len(all))
	}
}

func TestTournamentRepositorySaveResultOnce(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()
	repo := store.NewTournamentRepository(st)
	_ = repo.Save(ctx, sampleTournament("t1", 1, tournament.StatusFinished))

	first := tournament.TournamentResult{TournamentID: "t1", TotalPlayers: 3, FinishedAt: time.Now().UTC()}
	if err := repo.SaveResult(ctx, first); err != nil {
		t.Fatalf("save result: %v", err)
	}
	second := first
	second.TotalPlayers = 9
	if err := repo.SaveResult(ctx, second); err != nil {
		t.Fatalf("save result again: %v", err)
	}
	got, err := repo.GetResult(ctx, "t1")
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.TotalPlayers != 3 {
		t.Fatalf("result overwritten: %+v", got)
	}
	if _, err := repo.GetResult(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
