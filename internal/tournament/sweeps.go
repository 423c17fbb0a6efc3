package tournament

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StartSweeps registers the status and level sweeps and starts the timer
// service. Everything stops when ctx is done.
func (s *Scheduler) StartSweeps(ctx context.Context) error {
	statusJob, err := s.timers.Every("status-sweep", s.statusEvery, func() { s.SweepStatus(ctx) })
	if err != nil {
		return err
	}
	levelJob, err := s.timers.Every("level-sweep", s.levelEvery, func() { s.SweepLevels(ctx) })
	if err != nil {
		s.timers.Cancel(statusJob)
		return err
	}
	s.mu.Lock()
	s.sweeps = []uuid.UUID{statusJob, levelJob}
	s.mu.Unlock()

	s.timers.Start()
	go func() {
		<-ctx.Done()
		if err := s.timers.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("scheduler timers shutdown")
		}
	}()
	log.Info().
		Dur("status_every", s.statusEvery).
		Dur("level_every", s.levelEvery).
		Msg("tournament sweeps started")
	return nil
}

// SweepStatus starts every registering tournament whose window has closed
// and every sit-and-go that is full.
func (s *Scheduler) SweepStatus(ctx context.Context) int {
	defer s.metrics.observeSweep("status", time.Now())
	now := s.now()
	var due []string
	for _, rt := range s.snapshotRuntimes() {
		rt.mu.Lock()
		t := rt.t
		if t.Status == StatusRegistering {
			closed := !t.Schedule.RegistrationEnd.IsZero() && !now.Before(t.Schedule.RegistrationEnd)
			filled := t.Type == TypeSitAndGo && len(t.Players) >= t.MaxPlayers
			if closed || filled {
				due = append(due, t.ID)
			}
		}
		rt.mu.Unlock()
	}
	started := 0
	for _, id := range due {
		if s.triggerStart(ctx, id, "status_sweep") {
			started++
		}
	}
	return started
}

// SweepLevels derives the expected level of each playing tournament from
// elapsed time and catches the recorded level up to it.
func (s *Scheduler) SweepLevels(ctx context.Context) int {
	defer s.metrics.observeSweep("level", time.Now())
	now := s.now()
	advanced := 0
	for _, rt := range s.snapshotRuntimes() {
		rt.mu.Lock()
		t := rt.t
		if t.Status != StatusPlaying || t.StartedAt == nil || t.Structure.LevelDuration <= 0 {
			rt.mu.Unlock()
			continue
		}
		expected := int(now.Sub(*t.StartedAt)/t.Structure.LevelDuration) + 1
		if len(t.Blinds) > 0 && expected > len(t.Blinds) {
			expected = len(t.Blinds)
		}
		if expected <= t.CurrentLevel {
			rt.mu.Unlock()
			continue
		}
		s.setLevelLocked(rt, expected)
		snap := s.touch(rt)
		rt.mu.Unlock()
		s.commit(ctx, rt, snap)
		advanced++
	}
	return advanced
}

// scheduleNext books the following occurrence of a recurring tournament
// with a fresh pool.
func (s *Scheduler) scheduleNext(ctx context.Context, prev *Tournament) {
	start := prev.Schedule.StartTime
	if start.IsZero() {
		start = s.now()
	}
	now := s.now()
	start = advance(start, prev.Schedule.Recurrence)
	for !start.After(now) {
		start = advance(start, prev.Schedule.Recurrence)
	}
	st := prev.Structure
	cfg := Config{
		Name:          prev.Name,
		GameType:      prev.GameType,
		Type:          prev.Type,
		BuyIn:         prev.BuyIn,
		BasePrizePool: prev.BasePrizePool,
		MinPlayers:    prev.MinPlayers,
		MaxPlayers:    prev.MaxPlayers,
		Structure:     &st,
		Schedule: Schedule{
			StartTime:  start,
			Recurrence: prev.Schedule.Recurrence,
			TimeOfDay:  prev.Schedule.TimeOfDay,
		},
	}
	next, err := s.Create(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("tournament_id", prev.ID).Msg("schedule next occurrence failed")
		return
	}
	log.Info().
		Str("tournament_id", next.ID).
		Str("previous_id", prev.ID).
		Time("start_time", start).
		Msg("next occurrence scheduled")
}

// SeedRecurring creates each template unless a live tournament with the
// same name and recurrence already exists.
func (s *Scheduler) SeedRecurring(ctx context.Context, templates []Template) ([]*Tournament, error) {
	now := s.now()
	var out []*Tournament
	for _, tpl := range templates {
		if s.hasLive(tpl.Name, tpl.Schedule.Recurrence) {
			continue
		}
		start, err := tpl.firstOccurrence(now, s.loc)
		if err != nil {
			return out, err
		}
		cfg := tpl.Config
		cfg.Schedule.StartTime = start
		t, err := s.Create(ctx, cfg)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Scheduler) hasLive(name string, r Recurrence) bool {
	for _, rt := range s.snapshotRuntimes() {
		rt.mu.Lock()
		live := rt.t.Name == name && rt.t.Schedule.Recurrence == r && !rt.t.Status.Terminal()
		rt.mu.Unlock()
		if live {
			return true
		}
	}
	return false
}

// Rehydrate reloads unfinished tournaments from the repository and re-arms
// their triggers.
func (s *Scheduler) Rehydrate(ctx context.Context) (int, error) {
	list, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range list {
		if t.Status.Terminal() {
			continue
		}
		rt := &runtime{t: t}
		if !s.track(rt) {
			continue
		}
		n++
		switch t.Status {
		case StatusRegistering:
			s.armStart(rt)
		case StatusStarting:
			at := s.now()
			if t.StartedAt != nil {
				at = t.StartedAt.Add(s.settle)
			}
			s.armActivation(rt, at)
		}
		log.Info().
			Str("tournament_id", t.ID).
			Str("status", string(t.Status)).
			Msg("tournament rehydrated")
	}
	return n, nil
}
