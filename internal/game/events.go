package game

const (
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventBalanceChanged = "balance_changed"
	EventStateChanged   = "state_changed"
)

type PlayerEvent struct {
	SessionID string `json:"session_id"`
	Player    Player `json:"player"`
}

type BalanceEvent struct {
	SessionID string        `json:"session_id"`
	PlayerID  string        `json:"player_id"`
	Currency  string        `json:"currency"`
	Delta     int64         `json:"delta"`
	Balance   BalanceFields `json:"balance"`
}

type BalanceFields struct {
	GC int64 `json:"gc"`
	SC int64 `json:"sc"`
}

type StateEvent struct {
	SessionID string `json:"session_id"`
	From      State  `json:"from"`
	To        State  `json:"to"`
}
