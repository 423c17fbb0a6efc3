package game

import (
	"context"
	"errors"

	"sweeps-casino/internal/ledger"
)

var (
	ErrInvalidAction   = errors.New("invalid_action")
	ErrNotPlaying      = errors.New("game_not_playing")
	ErrNotEnoughPlayer = errors.New("not_enough_players")
	ErrPlayerNotFound  = errors.New("player_not_found")
)

type Action struct {
	PlayerID   string          `json:"player_id"`
	Type       string          `json:"type"`
	Amount     int64           `json:"amount,omitempty"`
	Currency   ledger.Currency `json:"currency,omitempty"`
	ClientSeed string          `json:"client_seed,omitempty"`
}

// Game is implemented by every concrete game. Implementations embed or hold
// a *Session and drive its lifecycle.
type Game interface {
	StartGame(ctx context.Context) error
	EndGame(ctx context.Context) error
	ProcessAction(ctx context.Context, a Action) (any, error)
	GameState() any
	ValidateAction(a Action) error
}
