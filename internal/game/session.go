package game

import (
	"context"
	"errors"
	"sync"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/fairness"
	"sweeps-casino/internal/ledger"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidConfig = errors.New("invalid_session_config")

type Player struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Balance ledger.Amount `json:"balance"`
	Level   int           `json:"level"`
	IsBot   bool          `json:"is_bot"`
}

// Config describes a new session. A fresh server seed is drawn when Seed
// is nil.
type Config struct {
	ID         string
	GameType   string
	MinPlayers int
	MaxPlayers int
	Seed       *fairness.Seed
}

// Session is the shared core of every game: roster, balances, fairness
// seed and lifecycle.
type Session struct {
	mu       sync.Mutex
	id       string
	gameType string
	min      int
	max      int
	players  map[string]Player
	order    []string
	state    State

	ledger *ledger.Ledger
	seed   *fairness.Seed
	pub    events.Publisher
}

func NewSession(cfg Config, l *ledger.Ledger, pub events.Publisher) (*Session, error) {
	if cfg.MinPlayers < 1 || cfg.MaxPlayers < cfg.MinPlayers || l == nil {
		return nil, ErrInvalidConfig
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == nil {
		var err error
		if seed, err = fairness.NewSeed(); err != nil {
			return nil, err
		}
	}
	if pub == nil {
		pub = events.Discard
	}
	return &Session{
		id:       cfg.ID,
		gameType: cfg.GameType,
		min:      cfg.MinPlayers,
		max:      cfg.MaxPlayers,
		players:  map[string]Player{},
		state:    StateWaiting,
		ledger:   l,
		seed:     seed,
		pub:      pub,
	}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) GameType() string { return s.gameType }

func (s *Session) MinPlayers() int { return s.min }

func (s *Session) MaxPlayers() int { return s.max }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddPlayer seats p unless the roster is full. Re-adding a known id
// replaces the stored entry. The player's ledger account is opened with
// the reported balance when it does not exist yet.
func (s *Session) AddPlayer(p Player) bool {
	if p.ID == "" {
		return false
	}
	s.mu.Lock()
	if len(s.players) >= s.max {
		s.mu.Unlock()
		return false
	}
	p.Balance = s.ledger.EnsureAccount(p.ID, p.Balance)
	if _, exists := s.players[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.players[p.ID] = p
	s.mu.Unlock()

	s.pub.Publish(EventPlayerJoined, s.id, PlayerEvent{SessionID: s.id, Player: p})
	return true
}

func (s *Session) RemovePlayer(id string) bool {
	s.mu.Lock()
	p, ok := s.players[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.pub.Publish(EventPlayerLeft, s.id, PlayerEvent{SessionID: s.id, Player: p})
	return true
}

func (s *Session) CanStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players) >= s.min
}

func (s *Session) Player(id string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	return p, ok
}

// Players returns the roster in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id])
	}
	return out
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// DeductBalance debits a seated player. It fails without side effects when
// the player is unknown or cannot cover the amount.
func (s *Session) DeductBalance(ctx context.Context, id string, amount int64, cur ledger.Currency) bool {
	if amount < 0 {
		return false
	}
	s.mu.Lock()
	p, ok := s.players[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	bal, err := s.ledger.Debit(ctx, id, ledger.Of(cur, amount), "bet_debit", "session", s.id)
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, ledger.ErrInsufficientBalance) {
			log.Warn().Err(err).Str("session_id", s.id).Str("player_id", id).Msg("session debit failed")
		}
		return false
	}
	p.Balance = bal
	s.players[id] = p
	s.mu.Unlock()

	s.publishBalance(id, cur, -amount, bal)
	return true
}

// AddBalance credits a seated player unconditionally.
func (s *Session) AddBalance(ctx context.Context, id string, amount int64, cur ledger.Currency) bool {
	if amount < 0 {
		return false
	}
	s.mu.Lock()
	p, ok := s.players[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	bal, err := s.ledger.Credit(ctx, id, ledger.Of(cur, amount), "win_credit", "session", s.id)
	if err != nil {
		s.mu.Unlock()
		log.Warn().Err(err).Str("session_id", s.id).Str("player_id", id).Msg("session credit failed")
		return false
	}
	p.Balance = bal
	s.players[id] = p
	s.mu.Unlock()

	s.publishBalance(id, cur, amount, bal)
	return true
}

func (s *Session) publishBalance(id string, cur ledger.Currency, delta int64, bal ledger.Amount) {
	s.pub.Publish(EventBalanceChanged, s.id, BalanceEvent{
		SessionID: s.id,
		PlayerID:  id,
		Currency:  string(cur),
		Delta:     delta,
		Balance:   BalanceFields{GC: bal.GC, SC: bal.SC},
	})
}

// RandomNumber draws a value in [0, max) from the session seed.
func (s *Session) RandomNumber(clientSeed string, max uint64) (uint64, error) {
	out, err := s.seed.Next(clientSeed, max)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

// Draw is RandomNumber with the nonce that produced the value.
func (s *Session) Draw(clientSeed string, max uint64) (fairness.Outcome, error) {
	return s.seed.Next(clientSeed, max)
}

func (s *Session) Commitment() string {
	return s.seed.Commitment()
}

func (s *Session) RevealSeed() fairness.Reveal {
	return s.seed.Reveal()
}

func (s *Session) SetState(next State) error {
	if !next.Valid() {
		return ErrUnknownState
	}
	s.mu.Lock()
	prev := s.state
	if !prev.CanTransitionTo(next) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.state = next
	s.mu.Unlock()

	s.pub.Publish(EventStateChanged, s.id, StateEvent{SessionID: s.id, From: prev, To: next})
	return nil
}
