package config

import "github.com/caarlos0/env/v11"

type ArchiveConfig struct {
	Enabled         bool   `env:"ARCHIVE_ENABLED" envDefault:"false"`
	Bucket          string `env:"ARCHIVE_BUCKET"`
	Prefix          string `env:"ARCHIVE_PREFIX" envDefault:"tournament-results"`
	Region          string `env:"ARCHIVE_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"ARCHIVE_ENDPOINT"`
	AccessKeyID     string `env:"ARCHIVE_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"ARCHIVE_SECRET_ACCESS_KEY"`
}

func LoadArchive() (ArchiveConfig, error) {
	var cfg ArchiveConfig
	err := env.Parse(&cfg)
	return cfg, err
}
