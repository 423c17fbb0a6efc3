// Package tournament runs the tournament catalog: creation, registration,
// timed progression, elimination, payouts and recurrence.
package tournament

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/ids"
	"sweeps-casino/internal/ledger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStatusSweepInterval = 60 * time.Second
	DefaultLevelSweepInterval  = 30 * time.Second
	DefaultSettleDelay         = 5 * time.Second

	defaultMinPlayers      = 2
	defaultMaxPlayers      = 100
	defaultSitAndGoPlayers = 9
)

// Config is the input to Create. Zero fields take defaults.
type Config struct {
	Name          string        `json:"name"`
	GameType      GameType      `json:"game_type"`
	Type          Type          `json:"type"`
	BuyIn         ledger.Amount `json:"buy_in"`
	BasePrizePool ledger.Amount `json:"base_prize_pool"`
	MinPlayers    int           `json:"min_players"`
	MaxPlayers    int           `json:"max_players"`
	Structure     *Structure    `json:"structure,omitempty"`
	Schedule      Schedule      `json:"schedule"`
}

type Options struct {
	Clock               clockwork.Clock
	Location            *time.Location
	Timers              Timers
	Repository          Repository
	Publisher           events.Publisher
	Metrics             *Metrics
	StatusSweepInterval time.Duration
	LevelSweepInterval  time.Duration
	SettleDelay         time.Duration
	PayoutSplit         PayoutSplit
	PayoutScale         PayoutScale
}

type pending struct {
	name string
	data any
}

// runtime owns one tournament. Mutations happen under mu; events are queued
// in outbox and published after mu is released.
type runtime struct {
	mu          sync.Mutex
	t           *Tournament
	startJob    uuid.UUID
	activateJob uuid.UUID
	outbox      []pending
	after       []func()
	flushing    bool
}

func (rt *runtime) emit(name string, data any) {
	rt.outbox = append(rt.outbox, pending{name: name, data: data})
}

func (rt *runtime) later(fn func()) {
	rt.after = append(rt.after, fn)
}

type Scheduler struct {
	mu       sync.Mutex
	runtimes map[string]*runtime
	order    []string
	sweeps   []uuid.UUID

	ledger  *ledger.Ledger
	repo    Repository
	pub     events.Publisher
	timers  Timers
	clock   clockwork.Clock
	loc     *time.Location
	metrics *Metrics

	statusEvery time.Duration
	levelEvery  time.Duration
	settle      time.Duration
	split       PayoutSplit
	scale       PayoutScale
}

func NewScheduler(l *ledger.Ledger, opts Options) (*Scheduler, error) {
	if l == nil {
		return nil, ErrSchedulerNotReady
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timers == nil {
		timers, err := NewCronTimers(opts.Clock, opts.Location)
		if err != nil {
			return nil, err
		}
		opts.Timers = timers
	}
	if opts.Repository == nil {
		opts.Repository = NewMemoryRepository()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Discard
	}
	if opts.StatusSweepInterval <= 0 {
		opts.StatusSweepInterval = DefaultStatusSweepInterval
	}
	if opts.LevelSweepInterval <= 0 {
		opts.LevelSweepInterval = DefaultLevelSweepInterval
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.PayoutSplit == "" {
		opts.PayoutSplit = SplitByBuyIn
	}
	if opts.PayoutScale == "" {
		opts.PayoutScale = ScaleRescale
	}
	return &Scheduler{
		runtimes:    map[string]*runtime{},
		ledger:      l,
		repo:        opts.Repository,
		pub:         opts.Publisher,
		timers:      opts.Timers,
		clock:       opts.Clock,
		loc:         opts.Location,
		metrics:     opts.Metrics,
		statusEvery: opts.StatusSweepInterval,
		levelEvery:  opts.LevelSweepInterval,
		settle:      opts.SettleDelay,
		split:       opts.PayoutSplit,
		scale:       opts.PayoutScale,
	}, nil
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now()
}

func (s *Scheduler) runtime(id string) *runtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runtimes[id]
}

func (s *Scheduler) snapshotRuntimes() []*runtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*runtime, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.runtimes[id])
	}
	return out
}

func (s *Scheduler) track(rt *runtime) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runtimes[rt.t.ID]; exists {
		return false
	}
	s.runtimes[rt.t.ID] = rt
	s.order = append(s.order, rt.t.ID)
	return true
}

// touch bumps the version and returns a snapshot. Caller holds rt.mu.
func (s *Scheduler) touch(rt *runtime) *Tournament {
	rt.t.Version++
	return rt.t.Clone()
}

// commit persists snap, runs deferred timer work and publishes queued
// events, in that order. Caller must not hold rt.mu.
func (s *Scheduler) commit(ctx context.Context, rt *runtime, snap *Tournament) {
	if snap != nil {
		if err := s.repo.Save(ctx, snap); err != nil {
			log.Error().
				Err(err).
				Str("tournament_id", snap.ID).
				Str("status", string(snap.Status)).
				Msg("tournament snapshot save failed")
		}
		if snap.Result != nil && snap.Status == StatusFinished {
			if rec, ok := s.repo.(ResultRecorder); ok {
				if err := rec.SaveResult(ctx, *snap.Result); err != nil {
					log.Error().Err(err).Str("tournament_id", snap.ID).Msg("tournament result save failed")
				}
			}
		}
	}
	rt.mu.Lock()
	after := rt.after
	rt.after = nil
	rt.mu.Unlock()
	for _, fn := range after {
		fn()
	}
	s.flush(rt)
}

// flush drains the outbox in order. Re-entrant calls return at once and
// leave the drain to the goroutine already flushing.
func (s *Scheduler) flush(rt *runtime) {
	rt.mu.Lock()
	if rt.flushing {
		rt.mu.Unlock()
		return
	}
	rt.flushing = true
	for {
		batch := rt.outbox
		rt.outbox = nil
		if len(batch) == 0 {
			rt.flushing = false
			rt.mu.Unlock()
			return
		}
		topic := rt.t.ID
		rt.mu.Unlock()
		for _, ev := range batch {
			s.pub.Publish(ev.name, topic, ev.data)
		}
		rt.mu.Lock()
	}
}

// Create validates cfg, builds the structure and payout table, and arms
// the start trigger.
func (s *Scheduler) Create(ctx context.Context, cfg Config) (*Tournament, error) {
	now := s.now()
	t, err := s.build(cfg, now)
	if err != nil {
		return nil, err
	}
	rt := &runtime{t: t}
	rt.emit(EventScheduled, ScheduledEvent{
		TournamentID: t.ID,
		Name:         t.Name,
		GameType:     t.GameType,
		Type:         t.Type,
		StartTime:    optionalTime(t.Schedule.StartTime),
		Recurrence:   t.Schedule.Recurrence,
	})
	rt.emit(EventRegistrationOpened, StatusEvent{TournamentID: t.ID, Status: StatusRegistering})
	if !s.track(rt) {
		return nil, ErrInvalidSchedule
	}
	s.metrics.tournamentCreated(t.GameType)

	rt.mu.Lock()
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.armStart(rt)
	s.commit(ctx, rt, snap)

	log.Info().
		Str("tournament_id", t.ID).
		Str("game_type", string(t.GameType)).
		Str("type", string(t.Type)).
		Time("start_time", t.Schedule.StartTime).
		Msg("tournament scheduled")
	return snap, nil
}

func (s *Scheduler) build(cfg Config, now time.Time) (*Tournament, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if !cfg.GameType.Valid() {
		return nil, ErrInvalidGameType
	}
	if !cfg.Type.Valid() {
		return nil, ErrInvalidType
	}
	if cfg.MinPlayers == 0 {
		cfg.MinPlayers = defaultMinPlayers
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = defaultMaxPlayers
		if cfg.Type == TypeSitAndGo {
			cfg.MaxPlayers = defaultSitAndGoPlayers
		}
	}
	if cfg.MinPlayers < 1 || cfg.MaxPlayers < cfg.MinPlayers {
		return nil, ErrInvalidPlayers
	}
	if cfg.BuyIn.Negative() || cfg.BasePrizePool.Negative() {
		return nil, ErrInvalidBuyIn
	}
	if cfg.Type == TypeFreeroll && !cfg.BuyIn.IsZero() {
		return nil, ErrInvalidBuyIn
	}

	sched := cfg.Schedule
	switch sched.Recurrence {
	case "":
		sched.Recurrence = RecurrenceNone
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return nil, ErrInvalidRecurrence
	}
	if sched.Recurrence.Recurring() {
		if sched.StartTime.IsZero() {
			start, err := NextOccurrence(now, sched.TimeOfDay, sched.Recurrence, s.loc)
			if err != nil {
				return nil, err
			}
			sched.StartTime = start
		} else if sched.TimeOfDay == "" {
			sched.TimeOfDay = sched.StartTime.In(s.loc).Format("15:04")
		}
	}
	if sched.StartTime.IsZero() && cfg.Type != TypeSitAndGo {
		return nil, ErrInvalidSchedule
	}
	if sched.RegistrationStart.IsZero() {
		sched.RegistrationStart = now
	}
	if sched.RegistrationEnd.IsZero() {
		sched.RegistrationEnd = sched.StartTime
	}
	if !sched.StartTime.IsZero() && sched.RegistrationEnd.After(sched.StartTime) {
		return nil, ErrInvalidSchedule
	}
	if !sched.RegistrationEnd.IsZero() && sched.RegistrationEnd.Before(sched.RegistrationStart) {
		return nil, ErrInvalidSchedule
	}

	st := mergeStructure(DefaultStructure(cfg.GameType), cfg.Structure)
	if st.StartingStack <= 0 || st.LevelDuration <= 0 {
		return nil, ErrInvalidStructure
	}

	id := ids.NewPrefixed("trn")
	t := &Tournament{
		ID:            id,
		Slug:          slug.Make(name) + "-" + strings.ToLower(id[len(id)-6:]),
		Name:          name,
		GameType:      cfg.GameType,
		Type:          cfg.Type,
		Status:        StatusRegistering,
		BuyIn:         cfg.BuyIn,
		BasePrizePool: cfg.BasePrizePool,
		PrizePool:     cfg.BasePrizePool,
		MinPlayers:    cfg.MinPlayers,
		MaxPlayers:    cfg.MaxPlayers,
		Structure:     st,
		Schedule:      sched,
		Players:       []TournamentPlayer{},
		Payouts:       PayoutStructure(cfg.MaxPlayers, s.scale),
		CreatedAt:     now,
	}
	if cfg.GameType == GamePoker {
		t.Blinds = BlindSchedule(st.LevelDuration)
	}
	return t, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// armStart registers the one-shot trigger at the scheduled start. It is
// dropped again if the tournament left registration meanwhile.
func (s *Scheduler) armStart(rt *runtime) {
	rt.mu.Lock()
	id := rt.t.ID
	at := rt.t.Schedule.StartTime
	status := rt.t.Status
	rt.mu.Unlock()
	if at.IsZero() || status != StatusRegistering {
		return
	}
	job, err := s.timers.At("start:"+id, at, func() {
		s.triggerStart(context.Background(), id, "start_time")
	})
	if err != nil {
		log.Error().Err(err).Str("tournament_id", id).Msg("arm start trigger failed")
		return
	}
	rt.mu.Lock()
	if rt.t.Status != StatusRegistering {
		rt.mu.Unlock()
		s.timers.Cancel(job)
		return
	}
	rt.startJob = job
	rt.mu.Unlock()
}

func (s *Scheduler) armActivation(rt *runtime, at time.Time) {
	rt.mu.Lock()
	id := rt.t.ID
	rt.mu.Unlock()
	job, err := s.timers.At("activate:"+id, at, func() {
		s.activate(context.Background(), id)
	})
	if err != nil {
		log.Error().Err(err).Str("tournament_id", id).Msg("arm activation failed")
		return
	}
	rt.mu.Lock()
	if rt.t.Status != StatusStarting {
		rt.mu.Unlock()
		s.timers.Cancel(job)
		return
	}
	rt.activateJob = job
	rt.mu.Unlock()
}

// clearJobs detaches pending one-shot triggers for cancellation after
// unlock. Caller holds rt.mu.
func (s *Scheduler) clearJobs(rt *runtime) {
	jobs := []uuid.UUID{rt.startJob, rt.activateJob}
	rt.startJob, rt.activateJob = uuid.Nil, uuid.Nil
	rt.later(func() {
		for _, id := range jobs {
			s.timers.Cancel(id)
		}
	})
}

// triggerStart is the single path into starting, shared by the start-time
// trigger, the status sweep, sit-and-go fill and explicit Start.
func (s *Scheduler) triggerStart(ctx context.Context, id, trigger string) bool {
	rt := s.runtime(id)
	if rt == nil {
		return false
	}
	rt.mu.Lock()
	started := s.startLocked(rt, trigger)
	var snap *Tournament
	if started {
		snap = s.touch(rt)
	}
	rt.mu.Unlock()
	if started {
		s.commit(ctx, rt, snap)
	}
	return started
}

// startLocked moves a registering tournament on. It is a no-op for any
// other status. Caller holds rt.mu.
func (s *Scheduler) startLocked(rt *runtime, trigger string) bool {
	t := rt.t
	if t.Status != StatusRegistering {
		return false
	}
	s.clearJobs(rt)
	if len(t.Players) == 0 {
		t.Status = StatusCancelled
		now := s.now()
		t.FinishedAt = &now
		rt.emit(EventCancelled, StatusEvent{TournamentID: t.ID, Status: StatusCancelled, Reason: "no_participants"})
		s.metrics.transition(StatusCancelled)
		log.Info().Str("tournament_id", t.ID).Str("trigger", trigger).Msg("tournament cancelled without participants")
		return true
	}
	now := s.now()
	t.Status = StatusStarting
	t.StartedAt = &now
	t.CurrentLevel = 1
	FillPayoutAmounts(t.Payouts, t.PrizePool)
	rt.emit(EventStarted, StartedEvent{
		TournamentID: t.ID,
		Trigger:      trigger,
		Players:      len(t.Players),
		PrizePool:    t.PrizePool,
		Payouts:      append([]PayoutLevel(nil), t.Payouts...),
	})
	s.metrics.transition(StatusStarting)
	activateAt := now.Add(s.settle)
	rt.later(func() { s.armActivation(rt, activateAt) })
	log.Info().
		Str("tournament_id", t.ID).
		Str("trigger", trigger).
		Int("players", len(t.Players)).
		Msg("tournament starting")
	return true
}

// activate completes the settle delay. The status is re-checked so a
// cancelled or finished tournament is left alone.
func (s *Scheduler) activate(ctx context.Context, id string) {
	rt := s.runtime(id)
	if rt == nil {
		return
	}
	rt.mu.Lock()
	rt.activateJob = uuid.Nil
	if rt.t.Status != StatusStarting {
		rt.mu.Unlock()
		return
	}
	rt.t.Status = StatusPlaying
	rt.emit(EventPlaying, StatusEvent{TournamentID: id, Status: StatusPlaying})
	s.metrics.transition(StatusPlaying)
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
}

func (s *Scheduler) Start(ctx context.Context, id string) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	if rt.t.Status != StatusRegistering {
		rt.mu.Unlock()
		return reject(ReasonCannotStart)
	}
	s.startLocked(rt, "manual")
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	return ok(snap)
}

// Cancel ends a tournament that has not reached play and refunds buy-ins.
func (s *Scheduler) Cancel(ctx context.Context, id string) Result {
	rt := s.runtime(id)
	if rt == nil {
		return notFound(ReasonNotFound)
	}
	rt.mu.Lock()
	t := rt.t
	if t.Status != StatusRegistering && t.Status != StatusStarting {
		rt.mu.Unlock()
		return reject(ReasonCannotCancel)
	}
	s.clearJobs(rt)
	for _, p := range t.Players {
		s.refund(ctx, t, p)
	}
	t.PrizePool = t.BasePrizePool
	t.Status = StatusCancelled
	now := s.now()
	t.FinishedAt = &now
	rt.emit(EventCancelled, StatusEvent{TournamentID: t.ID, Status: StatusCancelled, Reason: "cancelled"})
	s.metrics.transition(StatusCancelled)
	snap := s.touch(rt)
	rt.mu.Unlock()
	s.commit(ctx, rt, snap)
	log.Info().Str("tournament_id", id).Msg("tournament cancelled")
	return ok(snap)
}

// refund returns everything a player paid in. Caller holds rt.mu.
func (s *Scheduler) refund(ctx context.Context, t *Tournament, p TournamentPlayer) {
	paid := p.Rebuys + p.Addons + 1
	amt := ledger.Amount{GC: t.BuyIn.GC * int64(paid), SC: t.BuyIn.SC * int64(paid)}
	if amt.IsZero() {
		return
	}
	if _, err := s.ledger.RefundBuyIn(ctx, p.ID, t.ID, amt); err != nil {
		log.Error().
			Err(err).
			Str("tournament_id", t.ID).
			Str("player_id", p.ID).
			Msg("buy-in refund failed")
	}
}

func (s *Scheduler) Get(id string) (*Tournament, bool) {
	rt := s.runtime(id)
	if rt == nil {
		return nil, false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.t.Clone(), true
}

// List returns matching tournaments in creation order.
func (s *Scheduler) List(f Filter) []*Tournament {
	out := []*Tournament{}
	for _, rt := range s.snapshotRuntimes() {
		rt.mu.Lock()
		if f.Match(rt.t) {
			out = append(out, rt.t.Clone())
		}
		rt.mu.Unlock()
	}
	return out
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Chips      int64  `json:"chips"`
	Eliminated bool   `json:"eliminated"`
	Position   int    `json:"position,omitempty"`
}

// Leaderboard ranks players still in by chips, then the eliminated by
// finishing position.
func (s *Scheduler) Leaderboard(id string) ([]LeaderboardEntry, bool) {
	t, found := s.Get(id)
	if !found {
		return nil, false
	}
	var active, out []TournamentPlayer
	for _, p := range t.Players {
		if p.Eliminated {
			out = append(out, p)
		} else {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Chips > active[j].Chips })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	entries := make([]LeaderboardEntry, 0, len(t.Players))
	for _, p := range append(active, out...) {
		entries = append(entries, LeaderboardEntry{
			Rank:       len(entries) + 1,
			PlayerID:   p.ID,
			Name:       p.Name,
			Chips:      p.Chips,
			Eliminated: p.Eliminated,
			Position:   p.Position,
		})
	}
	return entries, true
}
