package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"sweeps-casino/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stdout
	file   *rotatingWriter
)

// Init configures the global zerolog logger. When cfg.File is set, log lines
// are written to stdout and to a file rotated at cfg.MaxMB.
func Init(cfg config.LogConfig) error {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var console io.Writer = os.Stdout
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	raw := io.Writer(os.Stdout)

	if file != nil {
		_ = file.Close()
		file = nil
	}
	if path := strings.TrimSpace(cfg.File); path != "" {
		w, err := newRotatingWriter(path, cfg.MaxMB)
		if err != nil {
			return err
		}
		file = w
		console = zerolog.MultiLevelWriter(console, w)
		raw = io.MultiWriter(os.Stdout, w)
	}
	output = raw

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(console).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer returns the raw JSON sink chosen by Init, for request loggers that
// format their own lines.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}
