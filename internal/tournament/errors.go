package tournament

import "errors"

var (
	ErrNotFound           = errors.New("tournament_not_found")
	ErrNotRunning         = errors.New("tournament_not_running")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidGameType    = errors.New("invalid_game_type")
	ErrInvalidType        = errors.New("invalid_tournament_type")
	ErrInvalidPlayers     = errors.New("invalid_player_bounds")
	ErrInvalidBuyIn       = errors.New("invalid_buy_in")
	ErrInvalidSchedule    = errors.New("invalid_schedule")
	ErrInvalidTimeOfDay   = errors.New("invalid_time_of_day")
	ErrInvalidRecurrence  = errors.New("invalid_recurrence")
	ErrInvalidStructure   = errors.New("invalid_structure")
	ErrSchedulerNotReady  = errors.New("scheduler_not_ready")
	ErrSchedulerStopped   = errors.New("scheduler_stopped")
	ErrInvalidPayoutSplit = errors.New("invalid_payout_split")
	ErrInvalidPayoutScale = errors.New("invalid_payout_scale")
)

// Rejection reasons reported in Result.Error.
const (
	ReasonNotFound            = "Tournament not found"
	ReasonRegistrationClosed  = "Registration is closed"
	ReasonRegistrationPending = "Registration has not opened"
	ReasonFull                = "Tournament is full"
	ReasonAlreadyRegistered   = "Player already registered"
	ReasonInsufficientBalance = "Insufficient balance for buy-in"
	ReasonPlayerNotFound      = "Player not found"
	ReasonInvalidPlayer       = "Invalid player"
	ReasonUnregisterClosed    = "Cannot unregister after registration closes"
	ReasonCannotStart         = "Tournament has already started"
	ReasonCannotCancel        = "Tournament cannot be cancelled"
	ReasonNotRunning          = "Tournament is not running"
	ReasonNotPlaying          = "Tournament is not in play"
	ReasonAlreadyEliminated   = "Player already eliminated"
	ReasonFinalLevel          = "Final level reached"
	ReasonRebuyClosed         = "Rebuy period is over"
	ReasonRebuyNotNeeded      = "Rebuy requires a stack below the starting stack"
	ReasonAddonUnavailable    = "Add-on not available"
	ReasonAddonUsed           = "Add-on already taken"
	ReasonLedgerFailure       = "Balance update failed"
)

// Result reports the outcome of an operation whose preconditions may not
// hold. Rejections are values, not errors.
type Result struct {
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	NotFound   bool        `json:"-"`
	Tournament *Tournament `json:"tournament,omitempty"`
}

func ok(t *Tournament) Result {
	return Result{Success: true, Tournament: t}
}

func reject(reason string) Result {
	return Result{Error: reason}
}

func notFound(reason string) Result {
	return Result{Error: reason, NotFound: true}
}
