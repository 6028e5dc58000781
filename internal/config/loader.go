package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "STUDYBUDDY_"
	envConfigPath = "STUDYBUDDY_CONFIG"
)

var (
	classifierBackends = map[string]bool{"lexicon": true, "huggingface": true, "openai": true, "gemini": true}
	journalBackends    = map[string]bool{"memory": true, "sqlite": true, "postgres": true}
	levelProfiles      = map[string]bool{"default": true, "exam": true, "mood": true}
	listKeys           = map[string]bool{
		"level.beginner":     true,
		"level.intermediate": true,
		"level.advanced":     true,
		"metrics.buckets":    true,
	}
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if STUDYBUDDY_CONFIG is set
//  3. env (prefix STUDYBUDDY_, "__" separates nested keys)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
		}
	}

	// STUDYBUDDY_CLASSIFIER__BACKEND -> classifier.backend
	// STUDYBUDDY_LEVEL__BEGINNER=hard,lost -> level.beginner: [hard lost]
	// STUDYBUDDY_METRICS__LABELS__ENV=prod -> metrics.labels: {env: prod}
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = envKey(key)
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TopEmotions < 1:
		return fmt.Errorf("%w: top_emotions must be at least 1", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case !classifierBackends[strings.ToLower(c.Classifier.Backend)]:
		return fmt.Errorf("%w: unknown classifier backend %q", ErrInvalidConfig, c.Classifier.Backend)
	case c.Classifier.Timeout < 0:
		return fmt.Errorf("%w: classifier.timeout must not be negative", ErrInvalidConfig)
	case c.Metrics.RefreshInterval < 0:
		return fmt.Errorf("%w: metrics.refresh_interval must not be negative", ErrInvalidConfig)
	}

	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return fmt.Errorf("%w: metrics.buckets must be strictly increasing", ErrInvalidConfig)
		}
	}

	if !c.Level.HasKeywords() && !levelProfiles[strings.ToLower(c.Level.Profile)] {
		return fmt.Errorf("%w: unknown level profile %q", ErrInvalidConfig, c.Level.Profile)
	}

	if c.Journal.Enabled {
		switch {
		case !journalBackends[strings.ToLower(c.Journal.Backend)]:
			return fmt.Errorf("%w: unknown journal backend %q", ErrInvalidConfig, c.Journal.Backend)
		case strings.ToLower(c.Journal.Backend) != "memory" && strings.TrimSpace(c.Journal.DSN) == "":
			return fmt.Errorf("%w: journal.dsn is required for %s", ErrInvalidConfig, c.Journal.Backend)
		case c.Journal.QueueSize < 1:
			return fmt.Errorf("%w: journal.queue_size must be at least 1", ErrInvalidConfig)
		case c.Journal.Workers < 1:
			return fmt.Errorf("%w: journal.workers must be at least 1", ErrInvalidConfig)
		}
	}
	return nil
}

// HasKeywords reports whether explicit keyword sets override the profile.
func (l LevelConfig) HasKeywords() bool {
	return len(l.Beginner) > 0 || len(l.Intermediate) > 0 || len(l.Advanced) > 0
}

func envKey(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
