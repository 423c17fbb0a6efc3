// Package dice is a fair dice duel: every seated player stakes the same
// amount, rolls once with their own client seed, and the highest roll takes
// the pot.
package dice

import (
	"context"
	"errors"
	"sync"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"
)

const (
	ActionRoll = "roll"
	Faces      = 6
)

var (
	ErrAlreadyRolled = errors.New("already_rolled")
	ErrStakeFailed   = errors.New("stake_failed")
	ErrNotStaked     = errors.New("player_not_staked")
)

type Roll struct {
	PlayerID string `json:"player_id"`
	Nonce    uint64 `json:"nonce"`
	Face     int    `json:"face"`
}

type State struct {
	SessionID  string          `json:"session_id"`
	State      game.State      `json:"state"`
	Stake      int64           `json:"stake"`
	Currency   ledger.Currency `json:"currency"`
	Pot        int64           `json:"pot"`
	Rolls      []Roll          `json:"rolls"`
	Winners    []string        `json:"winners,omitempty"`
	Commitment string          `json:"commitment"`
}

type Game struct {
	*game.Session

	mu       sync.Mutex
	stake    int64
	currency ledger.Currency
	pot      int64
	staked   []string
	rolls    map[string]Roll
	order    []string
	winners  []string
}

var _ game.Game = (*Game)(nil)

func New(cfg game.Config, stake int64, cur ledger.Currency, l *ledger.Ledger, pub events.Publisher) (*Game, error) {
	if stake < 0 {
		return nil, game.ErrInvalidConfig
	}
	if cfg.GameType == "" {
		cfg.GameType = "dice"
	}
	s, err := game.NewSession(cfg, l, pub)
	if err != nil {
		return nil, err
	}
	return &Game{Session: s, stake: stake, currency: cur, rolls: map[string]Roll{}}, nil
}

// StartGame collects the stake from every seated player. If anyone cannot
// pay, collected stakes are returned and the session ends.
func (g *Game) StartGame(ctx context.Context) error {
	if !g.CanStart() {
		return game.ErrNotEnoughPlayer
	}
	if err := g.SetState(game.StateStarting); err != nil {
		return err
	}
	var staked []string
	for _, p := range g.Players() {
		if !g.DeductBalance(ctx, p.ID, g.stake, g.currency) {
			for _, id := range staked {
				g.AddBalance(ctx, id, g.stake, g.currency)
			}
			_ = g.SetState(game.StateEnded)
			return ErrStakeFailed
		}
		staked = append(staked, p.ID)
	}
	g.mu.Lock()
	g.staked = staked
	g.pot = g.stake * int64(len(staked))
	g.mu.Unlock()
	return g.SetState(game.StatePlaying)
}

func (g *Game) ValidateAction(a game.Action) error {
	if g.State() != game.StatePlaying {
		return game.ErrNotPlaying
	}
	if a.Type != ActionRoll {
		return game.ErrInvalidAction
	}
	if _, ok := g.Player(a.PlayerID); !ok {
		return game.ErrPlayerNotFound
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stakedLocked(a.PlayerID) {
		return ErrNotStaked
	}
	if _, rolled := g.rolls[a.PlayerID]; rolled {
		return ErrAlreadyRolled
	}
	return nil
}

// stakedLocked reports whether id paid in at StartGame. Players seated later
// sit the hand out.
func (g *Game) stakedLocked(id string) bool {
	for _, s := range g.staked {
		if s == id {
			return true
		}
	}
	return false
}

// ProcessAction rolls for the acting player. The last roll settles the pot.
func (g *Game) ProcessAction(ctx context.Context, a game.Action) (any, error) {
	if err := g.ValidateAction(a); err != nil {
		return nil, err
	}
	out, err := g.Draw(a.ClientSeed, Faces)
	if err != nil {
		return nil, err
	}
	roll := Roll{PlayerID: a.PlayerID, Nonce: out.Nonce, Face: int(out.Value) + 1}

	g.mu.Lock()
	if _, dup := g.rolls[a.PlayerID]; dup {
		g.mu.Unlock()
		return nil, ErrAlreadyRolled
	}
	g.rolls[a.PlayerID] = roll
	g.order = append(g.order, a.PlayerID)
	done := len(g.rolls) >= len(g.staked)
	g.mu.Unlock()

	if done {
		if err := g.EndGame(ctx); err != nil {
			return roll, err
		}
	}
	return roll, nil
}

// EndGame pays the pot to the highest roll. Ties split it evenly and the
// remainder goes to the earliest roller among the winners.
func (g *Game) EndGame(ctx context.Context) error {
	g.mu.Lock()
	best := 0
	for _, r := range g.rolls {
		if r.Face > best {
			best = r.Face
		}
	}
	var winners []string
	for _, id := range g.order {
		if g.rolls[id].Face == best {
			winners = append(winners, id)
		}
	}
	pot := g.pot
	g.pot = 0
	g.winners = winners
	g.mu.Unlock()

	if len(winners) > 0 && pot > 0 {
		share := pot / int64(len(winners))
		rem := pot - share*int64(len(winners))
		for i, id := range winners {
			amt := share
			if i == 0 {
				amt += rem
			}
			g.AddBalance(ctx, id, amt, g.currency)
		}
	}
	if g.State() == game.StateEnded {
		return nil
	}
	return g.SetState(game.StateEnded)
}

func (g *Game) GameState() any {
	g.mu.Lock()
	defer g.mu.Unlock()
	rolls := make([]Roll, 0, len(g.order))
	for _, id := range g.order {
		rolls = append(rolls, g.rolls[id])
	}
	return State{
		SessionID:  g.ID(),
		State:      g.State(),
		Stake:      g.stake,
		Currency:   g.currency,
		Pot:        g.pot,
		Rolls:      rolls,
		Winners:    append([]string(nil), g.winners...),
		Commitment: g.Commitment(),
	}
}
