// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and STUDYBUDDY_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TopEmotions is how many emotions are reported and advised on.
	TopEmotions int `koanf:"top_emotions"`

	// CacheSize bounds the classification cache; 0 disables it.
	CacheSize int `koanf:"cache_size"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	Metrics    MetricsConfig    `koanf:"metrics"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Level      LevelConfig      `koanf:"level"`
	Advice     AdviceConfig     `koanf:"advice"`
	Journal    JournalConfig    `koanf:"journal"`
	Telegram   TelegramConfig   `koanf:"telegram"`
}

// MetricsConfig shapes the Prometheus metric names and refresh cadence.
type MetricsConfig struct {
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`

	// Buckets are the latency histogram bounds in milliseconds.
	Buckets []float64 `koanf:"buckets"`

	// RefreshInterval is how often queue and system gauges are sampled.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// Labels are constant labels added to every metric.
	Labels map[string]string `koanf:"labels"`
}

// ClassifierConfig selects and configures the emotion classifier backend.
type ClassifierConfig struct {
	// Backend is one of lexicon, huggingface, openai, gemini.
	Backend string `koanf:"backend"`

	// Model is the backend model name. Empty picks the backend default.
	Model string `koanf:"model"`

	// Endpoint overrides the backend base URL (huggingface, openai).
	Endpoint string `koanf:"endpoint"`

	// APIKey authenticates against the backend.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single classifier call.
	Timeout time.Duration `koanf:"timeout"`
}

// LevelConfig selects the keyword profile for study-level detection.
type LevelConfig struct {
	// Profile names a built-in keyword profile: default, exam, mood.
	Profile string `koanf:"profile"`

	// Keywords, when any set is non-empty, replace the profile's sets.
	Beginner     []string `koanf:"beginner"`
	Intermediate []string `koanf:"intermediate"`
	Advanced     []string `koanf:"advanced"`
}

// AdviceConfig points to an optional custom advice catalog.
type AdviceConfig struct {
	// CatalogPath is a YAML catalog file; empty uses the embedded catalog.
	CatalogPath string `koanf:"catalog_path"`
}

// JournalConfig controls the optional guidance journal.
type JournalConfig struct {
	Enabled bool `koanf:"enabled"`

	// Backend is one of memory, sqlite, postgres.
	Backend string `koanf:"backend"`

	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `koanf:"dsn"`

	// QueueSize bounds pending journal writes.
	QueueSize int `koanf:"queue_size"`

	// Workers is the number of journal writer goroutines.
	Workers int `koanf:"workers"`

	// Retention is how long entries are kept; 0 keeps everything.
	Retention time.Duration `koanf:"retention"`

	// PruneSchedule is a cron spec for retention runs.
	PruneSchedule string `koanf:"prune_schedule"`

	// HistoryLimit caps GET /history?limit.
	HistoryLimit int `koanf:"history_limit"`
}

// TelegramConfig enables the Telegram bot surface when Token is set.
type TelegramConfig struct {
	Token string `koanf:"token"`

	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int `koanf:"poll_timeout"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		TopEmotions:    3,
		CacheSize:      1024,
		MetricsEnabled: true,
		Metrics: MetricsConfig{
			Namespace:       "studybuddy",
			Subsystem:       "guidance",
			RefreshInterval: 10 * time.Second,
		},
		Classifier: ClassifierConfig{
			Backend: "lexicon",
			Timeout: 15 * time.Second,
		},
		Level: LevelConfig{
			Profile: "default",
		},
		Journal: JournalConfig{
			Enabled:       false,
			Backend:       "memory",
			QueueSize:     1024,
			Workers:       2,
			Retention:     30 * 24 * time.Hour,
			PruneSchedule: "@hourly",
			HistoryLimit:  100,
		},
		Telegram: TelegramConfig{
			PollTimeout: 60,
		},
	}
}
