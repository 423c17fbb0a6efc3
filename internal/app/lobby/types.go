package lobby

import (
	"time"

	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/tournament"
)

type ListResponse struct {
	Items []TournamentItem `json:"items"`
}

type TournamentItem struct {
	ID           string              `json:"id"`
	Slug         string              `json:"slug"`
	Name         string              `json:"name"`
	GameType     tournament.GameType `json:"game_type"`
	Type         tournament.Type     `json:"type"`
	Status       tournament.Status   `json:"status"`
	BuyIn        ledger.Amount       `json:"buy_in"`
	PrizePool    ledger.Amount       `json:"prize_pool"`
	Players      int                 `json:"players"`
	MaxPlayers   int                 `json:"max_players"`
	StartTime    *time.Time          `json:"start_time,omitempty"`
	CurrentLevel int                 `json:"current_level"`
}

type PlayerView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Chips      int64  `json:"chips"`
	Eliminated bool   `json:"eliminated"`
	Position   int    `json:"position,omitempty"`
	Rebuys     int    `json:"rebuys,omitempty"`
	Addons     int    `json:"addons,omitempty"`
}

type TournamentView struct {
	TournamentItem
	MinPlayers   int                          `json:"min_players"`
	Structure    tournament.Structure         `json:"structure"`
	Schedule     tournament.Schedule          `json:"schedule"`
	OnBreak      bool                         `json:"on_break"`
	CurrentBlind *tournament.BlindLevel       `json:"current_blind,omitempty"`
	Payouts      []tournament.PayoutLevel     `json:"payouts"`
	Registered   []PlayerView                 `json:"registered"`
	CreatedAt    time.Time                    `json:"created_at"`
	StartedAt    *time.Time                   `json:"started_at,omitempty"`
	FinishedAt   *time.Time                   `json:"finished_at,omitempty"`
	Result       *tournament.TournamentResult `json:"result,omitempty"`
}

// ActionResponse is the body of every mutating endpoint.
type ActionResponse struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	NotFound   bool            `json:"-"`
	Tournament *TournamentView `json:"tournament,omitempty"`
}

type LeaderboardResponse struct {
	TournamentID string                        `json:"tournament_id"`
	Status       tournament.Status             `json:"status"`
	Items        []tournament.LeaderboardEntry `json:"items"`
}

type AmountRequest struct {
	GC int64 `json:"gc"`
	SC int64 `json:"sc"`
}

func (a *AmountRequest) amount() ledger.Amount {
	if a == nil {
		return ledger.Amount{}
	}
	return ledger.Amount{GC: a.GC, SC: a.SC}
}

type StructureRequest struct {
	StartingStack          int64 `json:"starting_stack"`
	LevelDurationSec       int   `json:"level_duration_sec"`
	BreakFrequency         int   `json:"break_frequency"`
	BreakDurationSec       int   `json:"break_duration_sec"`
	LateRegistrationLevels int   `json:"late_registration_levels"`
	RebuyLevels            int   `json:"rebuy_levels"`
	AddonAllowed           bool  `json:"addon_allowed"`
	AddonStack             int64 `json:"addon_stack"`
}

type CreateRequest struct {
	Name              string            `json:"name"`
	GameType          string            `json:"game_type"`
	Type              string            `json:"type"`
	BuyIn             *AmountRequest    `json:"buy_in"`
	BasePrizePool     *AmountRequest    `json:"base_prize_pool"`
	MinPlayers        int               `json:"min_players"`
	MaxPlayers        int               `json:"max_players"`
	Structure         *StructureRequest `json:"structure"`
	RegistrationStart *time.Time        `json:"registration_start"`
	RegistrationEnd   *time.Time        `json:"registration_end"`
	StartTime         *time.Time        `json:"start_time"`
	Recurrence        string            `json:"recurrence"`
	TimeOfDay         string            `json:"time_of_day"`
}

// RegisterRequest carries no balance: accounts opened here start empty and
// are funded only through Topup.
type RegisterRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	IsBot    bool   `json:"is_bot"`
}

type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

type ChipsRequest struct {
	PlayerID string `json:"player_id"`
	Chips    int64  `json:"chips"`
}

type BalanceResponse struct {
	PlayerID string        `json:"player_id"`
	Balance  ledger.Amount `json:"balance"`
}

type VerifyRequest struct {
	ServerSeed string `json:"server_seed"`
	Commitment string `json:"commitment"`
	ClientSeed string `json:"client_seed"`
	Nonce      uint64 `json:"nonce"`
	Max        uint64 `json:"max"`
	Value      uint64 `json:"value"`
}

type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}
