package tournament

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// UpdateChips records a stack. A stack at or below zero busts the player.
func (s *Scheduler) UpdateChips(ctx context.Context, id, playerID string, chips int64) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	t := rt.t
	idx, found := t.player(playerID)
	if !found {
		rt.mu.Unlock()
		return notFound(ReasonPlayerNotFound)
	}
	if t.Players[idx].Eliminated {
		rt.mu.Unlock()
		return reject(ReasonAlreadyEliminated)
	}
	if !t.Status.Running() {
		rt.mu.Unlock()
		return reject(ReasonNotRunning)
	}
	if chips <= 0 {
		s.eliminateLocked(ctx, rt, idx)
	} else {
		t.Players[idx].Chips = chips
	}
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// Eliminate busts a player. Eliminating the same player twice is rejected
// and changes nothing.
func (s *Scheduler) Eliminate(ctx context.Context, id, playerID string) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	t := rt.t
	idx, found := t.player(playerID)
	if !found {
		rt.mu.Unlock()
		return notFound(ReasonPlayerNotFound)
	}
	if t.Players[idx].Eliminated {
		rt.mu.Unlock()
		return reject(ReasonAlreadyEliminated)
	}
	if !t.Status.Running() {
		rt.mu.Unlock()
		return reject(ReasonNotRunning)
	}
	s.eliminateLocked(ctx, rt, idx)
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// eliminateLocked assigns the next elimination sequence number. The first
// player out finishes last. Caller holds rt.mu.
func (s *Scheduler) eliminateLocked(ctx context.Context, rt *runtime, idx int) {
	t := rt.t
	now := s.now()
	seq := t.eliminatedCount() + 1
	p := &t.Players[idx]
	p.Eliminated = true
	p.EliminatedAt = &now
	p.EliminationSeq = seq
	p.Position = len(t.Players) - seq + 1
	p.Chips = 0
	remaining := t.activeCount()
	rt.emit(EventPlayerEliminated, EliminatedEvent{
		TournamentID: t.ID,
		PlayerID:     p.ID,
		Position:     p.Position,
		Remaining:    remaining,
	})
	s.metrics.eliminated()
	if remaining <= 1 {
		s.finishLocked(ctx, rt)
	}
}

// Finish closes a running tournament, pays the paid positions and, for a
// recurring schedule, books the next occurrence.
func (s *Scheduler) Finish(ctx context.Context, id string) (*TournamentResult, error) {
	rt := s.runtime(id)
	if rt == nil {
		return nil, ErrNotFound
	}
	rt.mu.Lock()
	if !rt.t.Status.Running() {
		rt.mu.Unlock()
		return nil, ErrNotRunning
	}
	res := s.finishLocked(ctx, rt)
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return &res, nil
}

// finishLocked ranks the survivors, credits payouts and freezes the
// result. Caller holds rt.mu.
func (s *Scheduler) finishLocked(ctx context.Context, rt *runtime) TournamentResult {
	t := rt.t
	now := s.now()

	active := make([]int, 0, len(t.Players))
	for i, p := range t.Players {
		if !p.Eliminated {
			active = append(active, i)
		}
	}
	sort.SliceStable(active, func(a, b int) bool {
		return t.Players[active[a]].Chips > t.Players[active[b]].Chips
	})
	for rank, idx := range active {
		t.Players[idx].Position = rank + 1
	}
	sort.SliceStable(t.Players, func(a, b int) bool {
		return t.Players[a].Position < t.Players[b].Position
	})

	mix := payoutMix(t, s.split)
	var payouts []PlayerPayout
	for _, lvl := range t.Payouts {
		if lvl.Position > len(t.Players) {
			break
		}
		winner := t.Players[lvl.Position-1]
		amt := SplitAmount(lvl.Amount, mix)
		if amt.IsZero() {
			continue
		}
		if _, err := s.ledger.CreditPayout(ctx, winner.ID, t.ID, amt); err != nil {
			log.Error().
				Err(err).
				Str("tournament_id", t.ID).
				Str("player_id", winner.ID).
				Int("position", lvl.Position).
				Msg("payout credit failed")
			continue
		}
		s.metrics.paid(amt)
		payouts = append(payouts, PlayerPayout{
			PlayerID: winner.ID,
			Name:     winner.Name,
			Position: lvl.Position,
			GC:       amt.GC,
			SC:       amt.SC,
		})
	}

	var dur time.Duration
	if t.StartedAt != nil {
		dur = now.Sub(*t.StartedAt)
	}
	res := TournamentResult{
		TournamentID: t.ID,
		Name:         t.Name,
		GameType:     t.GameType,
		Standings:    clonePlayers(t.Players),
		Payouts:      payouts,
		PrizePool:    t.PrizePool,
		Duration:     dur,
		TotalPlayers: len(t.Players),
		FinishedAt:   now,
	}
	t.Status = StatusFinished
	t.FinishedAt = &now
	t.OnBreak = false
	t.Result = &res
	s.clearJobs(rt)
	rt.emit(EventFinished, FinishedEvent{TournamentID: t.ID, Result: res.Clone()})
	s.metrics.transition(StatusFinished)

	if t.Schedule.Recurrence.Recurring() {
		next := t.Clone()
		rt.later(func() { s.scheduleNext(context.Background(), next) })
	}
	log.Info().
		Str("tournament_id", t.ID).
		Int("players", len(t.Players)).
		Int("paid", len(payouts)).
		Msg("tournament finished")
	return res.Clone()
}

// AdvanceLevel moves a playing tournament to the next level by hand.
func (s *Scheduler) AdvanceLevel(ctx context.Context, id string) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	t := rt.t
	if t.Status != StatusPlaying {
		rt.mu.Unlock()
		return reject(ReasonNotPlaying)
	}
	if len(t.Blinds) > 0 && t.CurrentLevel >= len(t.Blinds) {
		rt.mu.Unlock()
		return reject(ReasonFinalLevel)
	}
	s.setLevelLocked(rt, t.CurrentLevel+1)
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// setLevelLocked records a new level and flags a break on every
// BreakFrequency-th level. Caller holds rt.mu.
func (s *Scheduler) setLevelLocked(rt *runtime, level int) {
	t := rt.t
	t.CurrentLevel = level
	ev := LevelEvent{TournamentID: t.ID, Level: level}
	if b, found := t.CurrentBlind(); found {
		ev.Blind = &b
	}
	rt.emit(EventLevelAdvanced, ev)
	t.OnBreak = t.Structure.BreakFrequency > 0 && level%t.Structure.BreakFrequency == 0
	if t.OnBreak {
		rt.emit(EventBreak, BreakEvent{TournamentID: t.ID, Level: level, Duration: t.Structure.BreakDuration})
	}
}
