package service

import (
	"time"

	"github.com/okian/studybuddy/internal/adapters/repository"
	"github.com/okian/studybuddy/internal/domain/advice"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog replaces the embedded advice catalog.
func WithCatalog(c *advice.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithDetector replaces the default level detector.
func WithDetector(d *level.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// WithTopEmotions sets how many emotions are reported.
func WithTopEmotions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithCacheSize bounds the classification cache; 0 disables it.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithClassifierName labels the classifier in stats and logs.
func WithClassifierName(name string) Option {
	return func(s *Service) {
		s.classifierName = name
	}
}

// WithJournal enables the journal: results are queued and written to store
// by a worker pool.
func WithJournal(store repository.Store, backend string, queueSize, workers int) Option {
	return func(s *Service) {
		if store == nil {
			return
		}
		s.journalStore = store
		s.journalBackend = backend
		if queueSize > 0 {
			s.queueSize = queueSize
		}
		if workers > 0 {
			s.workerCount = workers
		}
	}
}

// WithRetention prunes journal entries older than maxAge on the cron spec.
func WithRetention(maxAge time.Duration, spec string) Option {
	return func(s *Service) {
		s.retention = maxAge
		s.pruneSchedule = spec
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides result ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
