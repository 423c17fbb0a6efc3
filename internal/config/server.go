package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	// PostgresDSN is optional. Without it tournaments live in memory only.
	PostgresDSN     string `env:"POSTGRES_DSN"`
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey     string `env:"ADMIN_API_KEY"`
	EventBufferSize int    `env:"EVENT_BUFFER_SIZE" envDefault:"2048"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
