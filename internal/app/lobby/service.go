package lobby

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sweeps-casino/internal/fairness"
	"sweeps-casino/internal/game"
	"sweeps-casino/internal/ledger"
	"sweeps-casino/internal/tournament"
)

type Service struct {
	sched  *tournament.Scheduler
	ledger *ledger.Ledger
}

func NewService(sched *tournament.Scheduler, l *ledger.Ledger) *Service {
	return &Service{sched: sched, ledger: l}
}

func (s *Service) List(_ context.Context, gameType, status string) (*ListResponse, error) {
	f := tournament.Filter{
		GameType: tournament.GameType(strings.ToLower(strings.TrimSpace(gameType))),
		Status:   tournament.Status(strings.ToLower(strings.TrimSpace(status))),
	}
	if f.GameType != "" && !f.GameType.Valid() {
		return nil, fmt.Errorf("%w: game_type", ErrInvalidRequest)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: status", ErrInvalidRequest)
	}
	items := s.sched.List(f)
	out := make([]TournamentItem, 0, len(items))
	for _, t := range items {
		out = append(out, toItem(t))
	}
	return &ListResponse{Items: out}, nil
}

func (s *Service) Get(_ context.Context, id string) (*TournamentView, error) {
	t, ok := s.sched.Get(id)
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return toView(t), nil
}

func (s *Service) Leaderboard(_ context.Context, id string) (*LeaderboardResponse, error) {
	t, ok := s.sched.Get(id)
	if !ok {
		return nil, ErrTournamentNotFound
	}
	items, _ := s.sched.Leaderboard(id)
	return &LeaderboardResponse{TournamentID: t.ID, Status: t.Status, Items: items}, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*TournamentView, error) {
	cfg := tournament.Config{
		Name:          req.Name,
		GameType:      tournament.GameType(strings.ToLower(strings.TrimSpace(req.GameType))),
		Type:          tournament.Type(strings.ToLower(strings.TrimSpace(req.Type))),
		BuyIn:         req.BuyIn.amount(),
		BasePrizePool: req.BasePrizePool.amount(),
		MinPlayers:    req.MinPlayers,
		MaxPlayers:    req.MaxPlayers,
		Schedule: tournament.Schedule{
			Recurrence: tournament.Recurrence(strings.ToLower(strings.TrimSpace(req.Recurrence))),
			TimeOfDay:  strings.TrimSpace(req.TimeOfDay),
		},
	}
	if req.RegistrationStart != nil {
		cfg.Schedule.RegistrationStart = *req.RegistrationStart
	}
	if req.RegistrationEnd != nil {
		cfg.Schedule.RegistrationEnd = *req.RegistrationEnd
	}
	if req.StartTime != nil {
		cfg.Schedule.StartTime = *req.StartTime
	}
	if st := req.Structure; st != nil {
		cfg.Structure = &tournament.Structure{
			StartingStack:          st.StartingStack,
			LevelDuration:          time.Duration(st.LevelDurationSec) * time.Second,
			BreakFrequency:         st.BreakFrequency,
			BreakDuration:          time.Duration(st.BreakDurationSec) * time.Second,
			LateRegistrationLevels: st.LateRegistrationLevels,
			RebuyLevels:            st.RebuyLevels,
			AddonAllowed:           st.AddonAllowed,
			AddonStack:             st.AddonStack,
		}
	}
	t, err := s.sched.Create(ctx, cfg)
	if err != nil {
		if isValidation(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}
	return toView(t), nil
}

func (s *Service) Register(ctx context.Context, id string, req RegisterRequest) *ActionResponse {
	p := game.Player{
		ID:    strings.TrimSpace(req.PlayerID),
		Name:  strings.TrimSpace(req.Name),
		Level: req.Level,
		IsBot: req.IsBot,
	}
	return toAction(s.sched.Register(ctx, id, p))
}

func (s *Service) Unregister(ctx context.Context, id string, req PlayerRequest) *ActionResponse {
	return toAction(s.sched.Unregister(ctx, id, strings.TrimSpace(req.PlayerID)))
}

func (s *Service) Rebuy(ctx context.Context, id string, req PlayerRequest) *ActionResponse {
	return toAction(s.sched.Rebuy(ctx, id, strings.TrimSpace(req.PlayerID)))
}

func (s *Service) Addon(ctx context.Context, id string, req PlayerRequest) *ActionResponse {
	return toAction(s.sched.Addon(ctx, id, strings.TrimSpace(req.PlayerID)))
}

func (s *Service) Start(ctx context.Context, id string) *ActionResponse {
	return toAction(s.sched.Start(ctx, id))
}

func (s *Service) Cancel(ctx context.Context, id string) *ActionResponse {
	return toAction(s.sched.Cancel(ctx, id))
}

func (s *Service) Advance(ctx context.Context, id string) *ActionResponse {
	return toAction(s.sched.AdvanceLevel(ctx, id))
}

func (s *Service) UpdateChips(ctx context.Context, id string, req ChipsRequest) *ActionResponse {
	return toAction(s.sched.UpdateChips(ctx, id, strings.TrimSpace(req.PlayerID), req.Chips))
}

func (s *Service) Eliminate(ctx context.Context, id string, req PlayerRequest) *ActionResponse {
	return toAction(s.sched.Eliminate(ctx, id, strings.TrimSpace(req.PlayerID)))
}

// Finish closes a running tournament. Not-running maps to a rejection so
// the HTTP layer answers like the other lifecycle actions.
func (s *Service) Finish(ctx context.Context, id string) *ActionResponse {
	_, err := s.sched.Finish(ctx, id)
	switch {
	case errors.Is(err, tournament.ErrNotFound):
		return &ActionResponse{Error: tournament.ReasonNotFound, NotFound: true}
	case errors.Is(err, tournament.ErrNotRunning):
		return &ActionResponse{Error: tournament.ReasonNotRunning}
	case err != nil:
		return &ActionResponse{Error: err.Error()}
	}
	t, _ := s.sched.Get(id)
	return &ActionResponse{Success: true, Tournament: toView(t)}
}

func (s *Service) Balance(_ context.Context, playerID string) (*BalanceResponse, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrInvalidRequest
	}
	bal, err := s.ledger.Balance(playerID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &BalanceResponse{PlayerID: playerID, Balance: bal}, nil
}

// Topup credits a player account, opening it when missing.
func (s *Service) Topup(ctx context.Context, playerID string, req AmountRequest) (*BalanceResponse, error) {
	playerID = strings.TrimSpace(playerID)
	amt := req.amount()
	if playerID == "" || amt.IsZero() || amt.Negative() {
		return nil, ErrInvalidRequest
	}
	s.ledger.EnsureAccount(playerID, ledger.Amount{})
	bal, err := s.ledger.Credit(ctx, playerID, amt, "admin_topup", "admin", "")
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{PlayerID: playerID, Balance: bal}, nil
}

// VerifyFairness recomputes a revealed outcome. Mismatches are reported in
// the response, not as errors.
func (s *Service) VerifyFairness(_ context.Context, req VerifyRequest) (*VerifyResponse, error) {
	if strings.TrimSpace(req.ServerSeed) == "" || req.Max == 0 {
		return nil, ErrInvalidRequest
	}
	err := fairness.Verify(req.ServerSeed, req.Commitment, req.ClientSeed, req.Nonce, req.Max, req.Value)
	switch {
	case err == nil:
		return &VerifyResponse{Valid: true}, nil
	case errors.Is(err, fairness.ErrCommitmentMismatch), errors.Is(err, fairness.ErrOutcomeMismatch):
		return &VerifyResponse{Valid: false, Reason: err.Error()}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		tournament.ErrInvalidName,
		tournament.ErrInvalidGameType,
		tournament.ErrInvalidType,
		tournament.ErrInvalidPlayers,
		tournament.ErrInvalidBuyIn,
		tournament.ErrInvalidSchedule,
		tournament.ErrInvalidTimeOfDay,
		tournament.ErrInvalidRecurrence,
		tournament.ErrInvalidStructure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toAction(r tournament.Result) *ActionResponse {
	out := &ActionResponse{Success: r.Success, Error: r.Error, NotFound: r.NotFound}
	if r.Tournament != nil {
		out.Tournament = toView(r.Tournament)
	}
	return out
}

func toItem(t *tournament.Tournament) TournamentItem {
	item := TournamentItem{
		ID:           t.ID,
		Slug:         t.Slug,
		Name:         t.Name,
		GameType:     t.GameType,
		Type:         t.Type,
		Status:       t.Status,
		BuyIn:        t.BuyIn,
		PrizePool:    t.PrizePool,
		Players:      len(t.Players),
		MaxPlayers:   t.MaxPlayers,
		CurrentLevel: t.CurrentLevel,
	}
	if !t.Schedule.StartTime.IsZero() {
		st := t.Schedule.StartTime
		item.StartTime = &st
	}
	return item
}

func toView(t *tournament.Tournament) *TournamentView {
	v := &TournamentView{
		TournamentItem: toItem(t),
		MinPlayers:     t.MinPlayers,
		Structure:      t.Structure,
		Schedule:       t.Schedule,
		OnBreak:        t.OnBreak,
		Payouts:        t.Payouts,
		Registered:     make([]PlayerView, 0, len(t.Players)),
		CreatedAt:      t.CreatedAt,
		StartedAt:      t.StartedAt,
		FinishedAt:     t.FinishedAt,
		Result:         t.Result,
	}
	if b, ok := t.CurrentBlind(); ok {
		v.CurrentBlind = &b
	}
	for _, p := range t.Players {
		v.Registered = append(v.Registered, PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Chips:      p.Chips,
			Eliminated: p.Eliminated,
			Position:   p.Position,
			Rebuys:     p.Rebuys,
			Addons:     p.Addons,
		})
	}
	return v
}
