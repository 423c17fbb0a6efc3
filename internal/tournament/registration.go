package tournament

import (
	"context"
	"errors"
	"strings"
	"time"

	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"

	"github.com/rs/zerolog/log"
)

// Register seats p in a registering tournament and collects the buy-in.
// A sit-and-go that fills up starts on the spot.
func (s *Scheduler) Register(ctx context.Context, id string, p game.Player) Result {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return reject(ReasonInvalidPlayer)
	}
	rt := s.runtime(id)
	if rt == nil {
		s.metrics.registration("not_found")
		return notFound(ReasonNotFound)
	}
	now := s.now()

	rt.mu.Lock()
	t := rt.t
	if reason := registrationBlocked(t, p.ID, now); reason != "" {
		rt.mu.Unlock()
		s.metrics.registration("rejected")
		return reject(reason)
	}
	p.Balance = s.ledger.EnsureAccount(p.ID, p.Balance)
	if !t.BuyIn.IsZero() {
		bal, err := s.ledger.DebitBuyIn(ctx, p.ID, t.ID, t.BuyIn)
		if err != nil {
			rt.mu.Unlock()
			s.metrics.registration("rejected")
			if errors.Is(err, ledger.ErrInsufficientBalance) {
				return reject(ReasonInsufficientBalance)
			}
			log.Error().Err(err).Str("tournament_id", id).Str("player_id", p.ID).Msg("buy-in debit failed")
			return reject(ReasonLedgerFailure)
		}
		p.Balance = bal
	}
	t.Players = append(t.Players, TournamentPlayer{
		Player:       p,
		RegisteredAt: now,
		Chips:        t.Structure.StartingStack,
	})
	t.PrizePool = t.PrizePool.Add(t.BuyIn)
	rt.emit(EventPlayerRegistered, PlayerEvent{
		TournamentID: t.ID,
		PlayerID:     p.ID,
		Name:         p.Name,
		Players:      len(t.Players),
		Chips:        t.Structure.StartingStack,
		PrizePool:    t.PrizePool,
	})
	if t.Type == TypeSitAndGo && len(t.Players) >= t.MaxPlayers {
		s.startLocked(rt, "filled")
	}
	snap := s.touch(rt)
	rt.mu.Unlock()

	s.metrics.registration("accepted")
	s.commit(ctx, rt, snap)
	log.Debug().Str("tournament_id", id).Str("player_id", p.ID).Msg("player registered")
	return ok(snap)
}

func registrationBlocked(t *Tournament, playerID string, now time.Time) string {
	if t.Status != StatusRegistering {
		return ReasonRegistrationClosed
	}
	if !t.Schedule.RegistrationStart.IsZero() && now.Before(t.Schedule.RegistrationStart) {
		return ReasonRegistrationPending
	}
	if !t.Schedule.RegistrationEnd.IsZero() && !now.Before(t.Schedule.RegistrationEnd) {
		return ReasonRegistrationClosed
	}
	if len(t.Players) >= t.MaxPlayers {
		return ReasonFull
	}
	if _, found := t.player(playerID); found {
		return ReasonAlreadyRegistered
	}
	return ""
}

// Unregister refunds the buy-in and reverses the pool contribution.
func (s *Scheduler) Unregister(ctx context.Context, id, playerID string) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	t := rt.t
	if t.Status != StatusRegistering {
		rt.mu.Unlock()
		return reject(ReasonUnregisterClosed)
	}
	idx, found := t.player(playerID)
	if !found {
		rt.mu.Unlock()
		return notFound(ReasonPlayerNotFound)
	}
	s.refund(ctx, t, t.Players[idx])
	t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
	t.PrizePool = t.PrizePool.Sub(t.BuyIn)
	rt.emit(EventPlayerUnregistered, PlayerEvent{
		TournamentID: t.ID,
		PlayerID:     playerID,
		Players:      len(t.Players),
		PrizePool:    t.PrizePool,
	})
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// Rebuy tops up a short-stacked player during the rebuy levels.
func (s *Scheduler) Rebuy(ctx context.Context, id, playerID string) Result {
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
	if t.Structure.RebuyLevels <= 0 || t.CurrentLevel > t.Structure.RebuyLevels {
		rt.mu.Unlock()
		return reject(ReasonRebuyClosed)
	}
	idx, found := t.player(playerID)
	if !found {
		rt.mu.Unlock()
		return notFound(ReasonPlayerNotFound)
	}
	p := &t.Players[idx]
	if p.Eliminated {
		rt.mu.Unlock()
		return reject(ReasonAlreadyEliminated)
	}
	if p.Chips >= t.Structure.StartingStack {
		rt.mu.Unlock()
		return reject(ReasonRebuyNotNeeded)
	}
	if reason := s.collect(ctx, t, playerID); reason != "" {
		rt.mu.Unlock()
		return reject(reason)
	}
	p.Chips += t.Structure.StartingStack
	p.Rebuys++
	t.PrizePool = t.PrizePool.Add(t.BuyIn)
	rt.emit(EventPlayerRebuy, PlayerEvent{
		TournamentID: t.ID,
		PlayerID:     playerID,
		Players:      len(t.Players),
		Chips:        p.Chips,
		PrizePool:    t.PrizePool,
	})
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// Addon sells one extra stack per player while rebuys are open.
func (s *Scheduler) Addon(ctx context.Context, id, playerID string) Result {
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
	if !t.Structure.AddonAllowed || t.CurrentLevel > t.Structure.RebuyLevels {
		rt.mu.Unlock()
		return reject(ReasonAddonUnavailable)
	}
	idx, found := t.player(playerID)
	if !found {
		rt.mu.Unlock()
		return notFound(ReasonPlayerNotFound)
	}
	p := &t.Players[idx]
	if p.Eliminated {
		rt.mu.Unlock()
		return reject(ReasonAlreadyEliminated)
	}
	if p.Addons > 0 {
		rt.mu.Unlock()
		return reject(ReasonAddonUsed)
	}
	if reason := s.collect(ctx, t, playerID); reason != "" {
		rt.mu.Unlock()
		return reject(reason)
	}
	stack := t.Structure.AddonStack
	if stack <= 0 {
		stack = t.Structure.StartingStack
	}
	p.Chips += stack
	p.Addons++
	t.PrizePool = t.PrizePool.Add(t.BuyIn)
	rt.emit(EventPlayerAddon, PlayerEvent{
		TournamentID: t.ID,
		PlayerID:     playerID,
		Players:      len(t.Players),
		Chips:        p.Chips,
		PrizePool:    t.PrizePool,
	})
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// collect debits one buy-in. Caller holds rt.mu.
func (s *Scheduler) collect(ctx context.Context, t *Tournament, playerID string) string {
	if t.BuyIn.IsZero() {
		return ""
	}
	if _, err := s.ledger.DebitBuyIn(ctx, playerID, t.ID, t.BuyIn); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return ReasonInsufficientBalance
		}
		log.Error().Err(err).Str("tournament_id", t.ID).Str("player_id", playerID).Msg("buy-in debit failed")
		return ReasonLedgerFailure
	}
	return ""
}
