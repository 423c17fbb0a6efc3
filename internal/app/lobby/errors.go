package lobby

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTournamentNotFound = errors.New("tournament_not_found")
	ErrAccountNotFound    = errors.New("account_not_found")
)
