// Package logging provides structured logging for the catalog service using zerolog.
//
// Library code takes its logger from the context:
//
//	log := logging.FromContext(ctx)
//	log.Info().Str("category", "graphics-card").Int("inserted", 3).Msg("sync finished")
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // "console" or "json"
	Output  io.Writer
	Service string
}

var defaultLogger = New(Config{Level: "info", Format: "json", Service: "pcsite-backend"})

// New creates a logger from config. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Default returns the process-wide logger
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
}

// Nop returns a logger that discards everything, for tests
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
