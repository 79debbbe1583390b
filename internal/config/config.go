// Package config defines the immutable per-run configuration for pgkeep.
// A Config is constructed once at process start (or on SIGHUP reload) and
// passed by value into each engine; no component reads ambient process state.
package config

import (
	"fmt"
	"time"
)

// RetentionUnit selects the addressing strategy of the retention engine.
// Only the two declared values are recognized; anything else is rejected
// at load time.
type RetentionUnit string

const (
	UnitDays    RetentionUnit = "days"
	UnitMinutes RetentionUnit = "minutes"
)

type Config struct {
	Source      SourceConfig      `koanf:"source"`
	Destination DestinationConfig `koanf:"destination"`
	Retention   RetentionConfig   `koanf:"retention"`
	Schedule    ScheduleConfig    `koanf:"schedule"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// SourceConfig identifies the database to dump. Credentials are taken from
// the ambient environment (PGPASSWORD, ~/.pgpass) by pg_dump itself and are
// never part of the configuration surface.
type SourceConfig struct {
	Database string `koanf:"database" validate:"required"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	User     string `koanf:"user"`
}

type DestinationConfig struct {
	Root   string `koanf:"root" validate:"required"`
	Prefix string `koanf:"prefix" validate:"required"`

	// StaleStagingAfter is the age past which an orphaned staging file
	// from a killed capture run is swept before the next capture writes
	// its own.
	StaleStagingAfter time.Duration `koanf:"staleStagingAfter"`
}

type RetentionConfig struct {
	// Enabled is the master kill-switch. When false the retention engine
	// exits immediately, before validation and enumeration.
	Enabled bool          `koanf:"enabled"`
	Unit    RetentionUnit `koanf:"unit"`
	Period  int           `koanf:"period"`
	DryRun  bool          `koanf:"dryRun"`

	// AllowedRoot is the only directory retention may ever delete under.
	// It is supplied independently of destination.root on purpose: the two
	// are compared at run time to catch configuration drift.
	AllowedRoot string `koanf:"allowedRoot"`
}

type ScheduleConfig struct {
	Capture   string `koanf:"capture"`
	Retention string `koanf:"retention"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error"
	Format string `koanf:"format"` // "console", "json"

	// ErrorFile, when set, receives a copy of every error-level line in
	// addition to the primary sink.
	ErrorFile string `koanf:"errorFile"`
}

// Error is a fatal configuration error. It aborts the process before any
// artifact is touched; there is no fallback to a default for any setting
// it covers.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Reason)
}

// Validate rejects incomplete or unrecognized settings. Struct tags cover
// presence and ranges; the retention enum and cross-field requirements are
// checked explicitly so the error names the violated setting.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}

	if c.Retention.Unit != "" && c.Retention.Unit != UnitDays && c.Retention.Unit != UnitMinutes {
		return &Error{
			Setting: "retention.unit",
			Reason:  fmt.Sprintf("unrecognized value %q (want %q or %q)", c.Retention.Unit, UnitDays, UnitMinutes),
		}
	}

	if c.Retention.Enabled {
		if c.Retention.Unit == "" {
			return &Error{Setting: "retention.unit", Reason: "required when retention is enabled"}
		}
		if c.Retention.Period <= 0 {
			return &Error{
				Setting: "retention.period",
				Reason:  fmt.Sprintf("must be a positive integer, got %d", c.Retention.Period),
			}
		}
		if c.Retention.AllowedRoot == "" {
			return &Error{Setting: "retention.allowedRoot", Reason: "required when retention is enabled"}
		}
	}

	return nil
}
