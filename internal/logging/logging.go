package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/config"
)

// New constructs a zerolog logger from the log section of the config.
// When cfg.File is set, output goes to that file (the terminal client needs
// stdout for the UI). The returned close func releases the file, if any.
func New(cfg config.LogConfig) (zerolog.Logger, func(), error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	var logger zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "json":
		logger = zerolog.New(out).With().Timestamp().Logger()
	case "console", "":
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.File != "",
		}).With().Timestamp().Logger()
	default:
		closeFn()
		return zerolog.Logger{}, nil, errors.New("unsupported log format")
	}

	return logger.Level(lvl), closeFn, nil
}
