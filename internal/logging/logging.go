// Package logging configures the process-wide zerolog logger.
//
// The logger is initialized once at startup via Setup and accessed through
// zerolog's global log.Logger. Re-configuration happens only through an
// explicit Setup call, never as an import side effect.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nchevrel/marmithon/internal/config"
)

// Setup configures the global logger from config. When cfg.File is set, log
// lines are written both to stderr (console format) and to the file (JSON).
func Setup(cfg config.Logging) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var out io.Writer = console
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(console, f)
	}

	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
