// Package service provides the guidance service behind the HTTP, HTML and
// Telegram surfaces.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/studybuddy/internal/adapters/mq/queue"
	"github.com/okian/studybuddy/internal/adapters/mq/worker"
	"github.com/okian/studybuddy/internal/adapters/repository"
	"github.com/okian/studybuddy/internal/domain/advice"
	"github.com/okian/studybuddy/internal/domain/cache"
	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
	"github.com/okian/studybuddy/internal/domain/model"
	"github.com/okian/studybuddy/internal/domain/types"
	"github.com/okian/studybuddy/pkg/logger"
	"github.com/okian/studybuddy/pkg/metrics"
)

// Service turns a learner's text into emotions, a study level and advice.
type Service struct {
	mu sync.RWMutex

	// Core components
	classifier     emotion.Classifier
	classifierName string
	detector       *level.Detector
	catalog        *advice.Catalog
	cache          cache.Cache
	topN           int
	cacheSize      int

	// Journal
	journalStore   repository.Store
	journalBackend string
	journalQueue   *queue.InMemoryQueue
	workerPool     *worker.Pool
	janitor        *repository.Retention
	queueSize      int
	workerCount    int
	retention      time.Duration
	pruneSchedule  string

	now   func() time.Time
	newID func() string

	requests, served, warnings, invalid, failures atomic.Int64
	cacheHits, cacheMisses, dropped               atomic.Int64

	started bool
	logger  logger.Logger
}

// New constructs a Service around classifier.
func New(classifier emotion.Classifier, opts ...Option) (*Service, error) {
	if classifier == nil {
		return nil, ErrNoClassifier
	}
	s := &Service{
		classifier:     classifier,
		classifierName: "custom",
		detector:       level.NewDetector(level.DefaultProfile),
		catalog:        advice.Default(),
		topN:           3,
		cacheSize:      1024,
		queueSize:      1024,
		workerCount:    2,
		pruneSchedule:  "@hourly",
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("guidance")
	}
	s.cache = cache.NewInMemory(cache.WithMaxSize(s.cacheSize))

	if s.journalStore != nil {
		s.journalQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		s.workerPool = worker.NewPool(s.workerCount, s.journalQueue, s.journalStore)
		if s.retention > 0 {
			j, err := repository.NewRetention(s.journalStore, s.retention, s.pruneSchedule,
				repository.WithClock(s.now),
			)
			if err != nil {
				return nil, fmt.Errorf("journal retention: %w", err)
			}
			s.janitor = j
		}
	}
	return s, nil
}

// Start launches the journal workers and retention schedule, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.workerPool != nil {
		s.workerPool.Start(context.WithoutCancel(ctx))
	}
	if s.janitor != nil {
		s.janitor.Start()
	}
	s.started = true
	s.logger.Info(ctx, "guidance service started",
		logger.String("classifier", s.classifierName),
		logger.String("level_profile", s.detector.Profile().Name),
		logger.Int("top_emotions", s.topN),
		logger.Int("cache_size", s.cacheSize),
		logger.Bool("journal", s.journalStore != nil),
	)
	return nil
}

// Stop drains the journal queue and closes the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping guidance service...")

	if s.janitor != nil {
		s.janitor.Stop()
	}
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "journal drain incomplete", logger.Error(err))
		}
	}
	if s.journalStore != nil {
		if err := s.journalStore.Close(); err != nil {
			s.logger.Warn(ctx, "closing journal store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "guidance service stopped")
}

// Guide analyzes req. Empty input returns ErrEmptyInput without calling the
// classifier; out-of-range days return ErrInvalidDays; classifier failures
// return an error wrapping ErrClassifier and no partial result.
func (s *Service) Guide(ctx context.Context, req model.Request) (model.Result, error) {
	start := time.Now()
	s.requests.Add(1)

	input := req.Input()
	if input == "" {
		s.warnings.Add(1)
		metrics.RecordGuidance(metrics.OutcomeWarning)
		return model.Result{}, ErrEmptyInput
	}
	if !req.DaysInRange() {
		s.invalid.Add(1)
		metrics.RecordGuidance(metrics.OutcomeInvalid)
		return model.Result{}, fmt.Errorf("%w: %d not in [%d,%d]",
			ErrInvalidDays, req.DaysUntilExam, model.MinDaysUntilExam, model.MaxDaysUntilExam)
	}

	scores, err := s.classify(ctx, input)
	if err != nil {
		s.failures.Add(1)
		metrics.RecordGuidance(metrics.OutcomeFailed)
		s.logger.Error(ctx, "classification failed",
			logger.String("classifier", s.classifierName),
			logger.Error(err),
		)
		return model.Result{}, err
	}

	top := emotion.Top(scores, s.topN)
	lvl, keyword := s.detector.Match(input)

	res := model.Result{
		ID:            s.newID(),
		Emotions:      top,
		Level:         lvl,
		LevelKeyword:  keyword,
		DaysUntilExam: req.DaysUntilExam,
		Advice:        advice.Compose(s.catalog, top, lvl, req.DaysUntilExam),
		CreatedAt:     s.now().UTC(),
	}

	s.served.Add(1)
	metrics.RecordGuidance(metrics.OutcomeServed)
	metrics.RecordGuidanceLatency(float64(time.Since(start).Microseconds()) / 1000)
	for _, e := range top {
		metrics.RecordEmotion(string(e.Label))
	}
	metrics.RecordLevel(lvl.String())
	if req.DaysUntilExam > 0 {
		metrics.RecordExamPlan()
	}

	s.journal(ctx, req, res)

	s.logger.Debug(ctx, "guidance served",
		logger.String("id", res.ID),
		logger.Any("emotions", emotion.LabelsOf(top)),
		logger.String("study_level", lvl.String()),
		logger.String("keyword", keyword),
	)
	return res, nil
}

func (s *Service) classify(ctx context.Context, input string) ([]emotion.Score, error) {
	if scores, ok := s.cache.Get(ctx, input); ok {
		s.cacheHits.Add(1)
		metrics.RecordCacheHit()
		return scores, nil
	}
	s.cacheMisses.Add(1)
	metrics.RecordCacheMiss()

	scores, err := s.classifier.Classify(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifier, err)
	}
	if err := emotion.Validate(scores); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifier, err)
	}

	s.cache.Put(ctx, input, scores)
	metrics.UpdateCacheSize(int(s.cache.Size()))
	return scores, nil
}

// journal queues res without blocking; a full queue drops the entry.
func (s *Service) journal(ctx context.Context, req model.Request, res model.Result) {
	if s.journalQueue == nil {
		return
	}
	entry := repository.Entry{
		ID:        res.ID,
		Text:      req.Text,
		Mood:      req.Mood,
		Level:     res.Level.String(),
		Days:      req.DaysUntilExam,
		CreatedAt: res.CreatedAt,
	}
	if best, ok := res.TopEmotion(); ok {
		entry.TopLabel = string(best.Label)
	}
	if err := s.journalQueue.Enqueue(ctx, entry); err != nil {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "journal entry dropped",
			logger.String("id", res.ID),
			logger.Error(err),
		)
	}
}

// History returns up to limit journal entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]repository.Entry, error) {
	if s.journalStore == nil {
		return nil, ErrJournalDisabled
	}
	return s.journalStore.Recent(ctx, limit)
}

// JournalEnabled reports whether results are journaled.
func (s *Service) JournalEnabled() bool {
	return s.journalStore != nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:     s.started,
		Classifier:  s.classifierName,
		Profile:     s.detector.Profile().Name,
		TopEmotions: s.topN,
		Requests:    s.requests.Load(),
		Served:      s.served.Load(),
		Warnings:    s.warnings.Load(),
		Invalid:     s.invalid.Load(),
		Failures:    s.failures.Load(),
		CacheSize:   s.cache.Size(),
		CacheHits:   s.cacheHits.Load(),
		CacheMisses: s.cacheMisses.Load(),
	}

	if s.journalStore != nil {
		ctx := context.Background()
		js := &types.JournalStats{
			Backend:     s.journalBackend,
			QueueLength: s.journalQueue.Len(ctx),
			Written:     s.workerPool.Written(),
			Dropped:     s.dropped.Load(),
		}
		if n, err := s.journalStore.Count(ctx); err == nil {
			js.Entries = n
			metrics.UpdateJournalEntries(n)
		}
		stats.Journal = js
	}
	metrics.UpdateCacheSize(int(stats.CacheSize))
	return stats
}
