package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type SchedulerConfig struct {
	StatusSweepInterval time.Duration `env:"STATUS_SWEEP_INTERVAL" envDefault:"60s"`
	LevelSweepInterval  time.Duration `env:"LEVEL_SWEEP_INTERVAL" envDefault:"30s"`
	SettleDelay         time.Duration `env:"SETTLE_DELAY" envDefault:"5s"`
	Timezone            string        `env:"SCHEDULER_TIMEZONE" envDefault:"UTC"`
	SeedRecurring       bool          `env:"SEED_RECURRING" envDefault:"true"`
	PayoutSplit         string        `env:"PAYOUT_SPLIT" envDefault:"buyin"`
	PayoutScale         string        `env:"PAYOUT_SCALE" envDefault:"rescale"`
}

func LoadScheduler() (SchedulerConfig, error) {
	var cfg SchedulerConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
