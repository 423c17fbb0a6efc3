package tournament

import (
	"time"

	"sweeps-casino/internal/ledger"
)

const (
	EventScheduled          = "tournament_scheduled"
	EventRegistrationOpened = "registration_opened"
	EventPlayerRegistered   = "player_registered"
	EventPlayerUnregistered = "player_unregistered"
	EventStarted            = "tournament_started"
	EventPlaying            = "tournament_playing"
	EventLevelAdvanced      = "level_advanced"
	EventBreak              = "tournament_break"
	EventPlayerEliminated   = "player_eliminated"
	EventFinished           = "tournament_finished"
	EventCancelled          = "tournament_cancelled"
	EventPlayerRebuy        = "player_rebuy"
	EventPlayerAddon        = "player_addon"
)

type ScheduledEvent struct {
	TournamentID string     `json:"tournament_id"`
	Name         string     `json:"name"`
	GameType     GameType   `json:"game_type"`
	Type         Type       `json:"type"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	Recurrence   Recurrence `json:"recurrence"`
}

type PlayerEvent struct {
	TournamentID string        `json:"tournament_id"`
	PlayerID     string        `json:"player_id"`
	Name         string        `json:"name,omitempty"`
	Players      int           `json:"players"`
	Chips        int64         `json:"chips,omitempty"`
	PrizePool    ledger.Amount `json:"prize_pool"`
}

type StartedEvent struct {
	TournamentID string        `json:"tournament_id"`
	Trigger      string        `json:"trigger"`
	Players      int           `json:"players"`
	PrizePool    ledger.Amount `json:"prize_pool"`
	Payouts      []PayoutLevel `json:"payouts"`
}

type StatusEvent struct {
	TournamentID string `json:"tournament_id"`
	Status       Status `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

type LevelEvent struct {
	TournamentID string      `json:"tournament_id"`
	Level        int         `json:"level"`
	Blind        *BlindLevel `json:"blind,omitempty"`
}

type BreakEvent struct {
	TournamentID string        `json:"tournament_id"`
	Level        int           `json:"level"`
	Duration     time.Duration `json:"duration"`
}

type EliminatedEvent struct {
	TournamentID string `json:"tournament_id"`
	PlayerID     string `json:"player_id"`
	Position     int    `json:"position"`
	Remaining    int    `json:"remaining"`
}

type FinishedEvent struct {
	TournamentID string           `json:"tournament_id"`
	Result       TournamentResult `json:"result"`
}
