// Package logging configures the zerolog logger shared by both engines.
// Output goes to stderr in console or json format; when an error file is
// configured, error-level lines are additionally appended there so a
// monitor can tail failures without parsing the full stream.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger from cfg. The returned closer releases the
// error sink, if one was opened; it is safe to call when none was.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}

	var primary io.Writer = os.Stderr
	if cfg.Format == "console" {
		primary = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	closer := func() error { return nil }
	writer := zerolog.MultiLevelWriter(primary)
	if cfg.ErrorFile != "" {
		f, err := os.OpenFile(cfg.ErrorFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: opening error sink: %w", err)
		}
		closer = f.Close
		writer = zerolog.MultiLevelWriter(primary, errorSink{f})
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// Config mirrors the logging section of the application configuration.
// It is declared here, not in internal/config, so this package stays
// importable without a dependency cycle.
type Config struct {
	Level     string
	Format    string
	ErrorFile string
}

// errorSink forwards only error-and-above events to its writer.
type errorSink struct {
	w io.Writer
}

func (s errorSink) Write(p []byte) (int, error) {
	// Plain Write carries no level; the primary sink already has it.
	return len(p), nil
}

func (s errorSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return s.w.Write(p)
}
