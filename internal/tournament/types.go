package tournament

import (
	"time"

	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"

	"github.com/shopspring/decimal"
)

type GameType string

const (
	GamePoker GameType = "poker"
	GameBingo GameType = "bingo"
	GameSlots GameType = "slots"
)

func (g GameType) Valid() bool {
	switch g {
	case GamePoker, GameBingo, GameSlots:
		return true
	}
	return false
}

type Type string

const (
	TypeSitAndGo  Type = "sit_and_go"
	TypeScheduled Type = "scheduled"
	TypeFreeroll  Type = "freeroll"
	TypeSatellite Type = "satellite"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSitAndGo, TypeScheduled, TypeFreeroll, TypeSatellite:
		return true
	}
	return false
}

type Status string

const (
	StatusRegistering Status = "registering"
	StatusStarting    Status = "starting"
	StatusPlaying     Status = "playing"
	StatusFinished    Status = "finished"
	StatusCancelled   Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRegistering, StatusStarting, StatusPlaying, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Running covers the statuses in which chips move and players bust.
func (s Status) Running() bool {
	return s == StatusStarting || s == StatusPlaying
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Recurring() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly || r == RecurrenceMonthly
}

type StackUnit string

const (
	UnitChips   StackUnit = "chips"
	UnitCards   StackUnit = "cards"
	UnitCredits StackUnit = "credits"
)

// Structure holds the per-tournament timing and stack parameters.
// LateRegistrationLevels is advertised to clients only; Register accepts
// players while the tournament is registering and never after it starts.
type Structure struct {
	StartingStack          int64         `json:"starting_stack"`
	StackUnit              StackUnit     `json:"stack_unit"`
	LevelDuration          time.Duration `json:"level_duration"`
	BreakFrequency         int           `json:"break_frequency"`
	BreakDuration          time.Duration `json:"break_duration"`
	LateRegistrationLevels int           `json:"late_registration_levels"`
	RebuyLevels            int           `json:"rebuy_levels"`
	AddonAllowed           bool          `json:"addon_allowed"`
	AddonStack             int64         `json:"addon_stack"`
}

type Schedule struct {
	RegistrationStart time.Time  `json:"registration_start"`
	RegistrationEnd   time.Time  `json:"registration_end,omitempty"`
	StartTime         time.Time  `json:"start_time,omitempty"`
	Recurrence        Recurrence `json:"recurrence"`
	TimeOfDay         string     `json:"time_of_day,omitempty"`
}

type TournamentPlayer struct {
	game.Player
	RegisteredAt   time.Time  `json:"registered_at"`
	Chips          int64      `json:"chips"`
	Eliminated     bool       `json:"eliminated"`
	EliminatedAt   *time.Time `json:"eliminated_at,omitempty"`
	EliminationSeq int        `json:"elimination_seq,omitempty"`
	Position       int        `json:"position,omitempty"`
	Rebuys         int        `json:"rebuys"`
	Addons         int        `json:"addons"`
}

type BlindLevel struct {
	Level      int           `json:"level"`
	SmallBlind int64         `json:"small_blind"`
	BigBlind   int64         `json:"big_blind"`
	Ante       int64         `json:"ante"`
	Duration   time.Duration `json:"duration"`
}

type PayoutLevel struct {
	Position   int             `json:"position"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     int64           `json:"amount"`
}

type PlayerPayout struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	GC       int64  `json:"gc"`
	SC       int64  `json:"sc"`
}

// TournamentResult is produced once, at finish.
type TournamentResult struct {
	TournamentID string             `json:"tournament_id"`
	Name         string             `json:"name"`
	GameType     GameType           `json:"game_type"`
	Standings    []TournamentPlayer `json:"standings"`
	Payouts      []PlayerPayout     `json:"payouts"`
	PrizePool    ledger.Amount      `json:"prize_pool"`
	Duration     time.Duration      `json:"duration"`
	TotalPlayers int                `json:"total_players"`
	FinishedAt   time.Time          `json:"finished_at"`
}

type Tournament struct {
	ID            string             `json:"id"`
	Slug          string             `json:"slug"`
	Name          string             `json:"name"`
	GameType      GameType           `json:"game_type"`
	Type          Type               `json:"type"`
	Status        Status             `json:"status"`
	BuyIn         ledger.Amount      `json:"buy_in"`
	BasePrizePool ledger.Amount      `json:"base_prize_pool"`
	PrizePool     ledger.Amount      `json:"prize_pool"`
	MinPlayers    int                `json:"min_players"`
	MaxPlayers    int                `json:"max_players"`
	Structure     Structure          `json:"structure"`
	Schedule      Schedule           `json:"schedule"`
	Players       []TournamentPlayer `json:"players"`
	CurrentLevel  int                `json:"current_level"`
	OnBreak       bool               `json:"on_break"`
	Blinds        []BlindLevel       `json:"blinds,omitempty"`
	Payouts       []PayoutLevel      `json:"payouts"`
	CreatedAt     time.Time          `json:"created_at"`
	StartedAt     *time.Time         `json:"started_at,omitempty"`
	FinishedAt    *time.Time         `json:"finished_at,omitempty"`
	Result        *TournamentResult  `json:"result,omitempty"`
	Version       int64              `json:"version"`
}

func (t *Tournament) player(id string) (int, bool) {
	for i := range t.Players {
		if t.Players[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (t *Tournament) activeCount() int {
	n := 0
	for _, p := range t.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

func (t *Tournament) eliminatedCount() int {
	n := 0
	for _, p := range t.Players {
		if p.Eliminated {
			n++
		}
	}
	return n
}

// CurrentBlind returns the blind level in effect, if the game has blinds.
func (t *Tournament) CurrentBlind() (BlindLevel, bool) {
	if t.CurrentLevel < 1 || t.CurrentLevel > len(t.Blinds) {
		return BlindLevel{}, false
	}
	return t.Blinds[t.CurrentLevel-1], true
}

// Clone returns a deep copy safe to hand to collaborators.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.Players = clonePlayers(t.Players)
	c.Blinds = append([]BlindLevel(nil), t.Blinds...)
	c.Payouts = append([]PayoutLevel(nil), t.Payouts...)
	c.StartedAt = cloneTime(t.StartedAt)
	c.FinishedAt = cloneTime(t.FinishedAt)
	if t.Result != nil {
		r := t.Result.Clone()
		c.Result = &r
	}
	return &c
}

func (r TournamentResult) Clone() TournamentResult {
	c := r
	c.Standings = clonePlayers(r.Standings)
	c.Payouts = append([]PlayerPayout(nil), r.Payouts...)
	return c
}

func clonePlayers(in []TournamentPlayer) []TournamentPlayer {
	if in == nil {
		return nil
	}
	out := make([]TournamentPlayer, len(in))
	copy(out, in)
	for i := range out {
		out[i].EliminatedAt = cloneTime(in[i].EliminatedAt)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
