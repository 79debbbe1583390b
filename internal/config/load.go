package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g.
// PGKEEP_DESTINATION_ROOT overrides destination.root.
const EnvPrefix = "PGKEEP_"

// matches $(VAR_NAME) placeholders inside the raw YAML
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

func defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Host: "127.0.0.1",
			Port: 5432,
		},
		Destination: DestinationConfig{
			StaleStagingAfter: 24 * time.Hour,
		},
		Schedule: ScheduleConfig{
			Capture:   "0 2 * * *",
			Retention: "30 2 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds a Config from layered sources: built-in defaults, then the
// YAML file at path (with $(VAR) placeholders expanded from the
// environment before parsing), then PGKEEP_* environment variables.
// The result is validated; a missing required setting or an unrecognized
// enum value fails the load rather than falling back to a default.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := k.Load(rawbytes.Provider([]byte(expanded)), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envToPath), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envToPath maps PGKEEP_SECTION_KEY to section.key. Two-level keys only;
// camelCase leaf names (dryRun, allowedRoot, errorFile) keep their YAML
// spelling through an explicit table.
func envToPath(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return s
	}
	leaf := parts[1]
	if mapped, ok := envLeafNames[leaf]; ok {
		leaf = mapped
	}
	return parts[0] + "." + leaf
}

var envLeafNames = map[string]string{
	"dryrun":            "dryRun",
	"allowedroot":       "allowedRoot",
	"stalestagingafter": "staleStagingAfter",
	"errorfile":         "errorFile",
}
