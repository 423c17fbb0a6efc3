package tournament

import (
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Timers runs periodic sweeps and cancellable one-shot triggers.
type Timers interface {
	Every(name string, interval time.Duration, fn func()) (uuid.UUID, error)
	At(name string, at time.Time, fn func()) (uuid.UUID, error)
	Cancel(id uuid.UUID)
	Start()
	Shutdown() error
}

type CronTimers struct {
	cron  gocron.Scheduler
	clock clockwork.Clock
}

func NewCronTimers(clock clockwork.Clock, loc *time.Location) (*CronTimers, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	cron, err := gocron.NewScheduler(gocron.WithClock(clock), gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &CronTimers{cron: cron, clock: clock}, nil
}

// Every runs fn on a fixed interval. A run still in progress when the next
// tick arrives causes that tick to be skipped.
func (c *CronTimers) Every(name string, interval time.Duration, fn func()) (uuid.UUID, error) {
	job, err := c.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return uuid.Nil, err
	}
	return job.ID(), nil
}

// At runs fn once at the given time, or immediately if it has passed.
func (c *CronTimers) At(name string, at time.Time, fn func()) (uuid.UUID, error) {
	start := gocron.OneTimeJobStartImmediately()
	if at.After(c.clock.Now()) {
		start = gocron.OneTimeJobStartDateTime(at)
	}
	job, err := c.cron.NewJob(gocron.OneTimeJob(start), gocron.NewTask(fn), gocron.WithName(name))
	if err != nil {
		job, err = c.cron.NewJob(gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()), gocron.NewTask(fn), gocron.WithName(name))
		if err != nil {
			return uuid.Nil, err
		}
	}
	return job.ID(), nil
}

func (c *CronTimers) Cancel(id uuid.UUID) {
	if id == uuid.Nil {
		return
	}
	if err := c.cron.RemoveJob(id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		log.Debug().Err(err).Str("job_id", id.String()).Msg("remove timer failed")
	}
}

func (c *CronTimers) Start() {
	c.cron.Start()
}

func (c *CronTimers) Shutdown() error {
	return c.cron.Shutdown()
}
