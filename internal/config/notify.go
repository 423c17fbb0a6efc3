package config

import "github.com/caarlos0/env/v11"

type NotifyConfig struct {
	Enabled     bool   `env:"NOTIFY_ENABLED" envDefault:"false"`
	TargetsJSON string `env:"NOTIFY_TARGETS_JSON"`
	TargetsPath string `env:"NOTIFY_TARGETS_PATH"`
	Workers     int    `env:"NOTIFY_WORKERS" envDefault:"4"`
	RetryMax    int    `env:"NOTIFY_RETRY_MAX" envDefault:"3"`
	RetryBaseMS int    `env:"NOTIFY_RETRY_BASE_MS" envDefault:"500"`
}

func LoadNotify() (NotifyConfig, error) {
	var cfg NotifyConfig
	err := env.Parse(&cfg)
	return cfg, err
}
