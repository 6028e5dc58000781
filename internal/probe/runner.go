// Package probe drives a running studybuddy server with a fixed corpus and
// checks the answers.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/studybuddy/pkg/logger"
)

// ErrProbeFailed is returned when any sample got an unexpected answer.
var ErrProbeFailed = errors.New("probe failed")

// Run executes the complete probe.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting studybuddy probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("history", config.History))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Submit the corpus concurrently and verify every answer
	for _, o := range submitSamples(ctx, config, Corpus()) {
		stats.record(o)
	}

	// Step 3: Check the journal
	if config.History {
		n, err := checkHistory(ctx, config)
		if err != nil {
			stats.Failed++
			stats.Failures = append(stats.Failures, Outcome{Sample: "history", Err: err})
		}
		stats.HistoryLen = n
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d checks failed", ErrProbeFailed, stats.Failed, stats.Submitted)
	}
	logger.Get().Info(ctx, "probe completed successfully")
	return stats, nil
}

func (s *Stats) record(o Outcome) {
	s.Submitted++
	if o.Latency > s.MaxLatency {
		s.MaxLatency = o.Latency
	}
	if o.Status == StatusUnprocessableEntity {
		s.Warnings++
	}
	if o.Err != nil {
		s.Failed++
		if len(s.Failures) < maxFailuresKept {
			s.Failures = append(s.Failures, o)
		}
		return
	}
	s.Passed++
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// checkHistory reads the newest journal entries and checks their order.
func checkHistory(ctx context.Context, config *Config) (int, error) {
	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, fmt.Sprintf("%s/history?limit=%d", config.BaseURL, historyLimit))
	if err != nil {
		return 0, fmt.Errorf("history request: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return 0, fmt.Errorf("history body: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("%w: history status %d", ErrMismatch, resp.StatusCode)
	}
	var entries []struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return 0, fmt.Errorf("%w: history body: %v", ErrMismatch, err)
	}
	if len(entries) > historyLimit {
		return len(entries), fmt.Errorf("%w: %d entries for limit %d", ErrMismatch, len(entries), historyLimit)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			return len(entries), fmt.Errorf("%w: history not newest first", ErrMismatch)
		}
	}
	return len(entries), nil
}

// displayFinalStats logs the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("submitted", stats.Submitted),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("warnings", stats.Warnings),
		logger.Int("historyEntries", stats.HistoryLen),
		logger.String("maxLatency", stats.MaxLatency.String()),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", perSecond))
	for _, f := range stats.Failures {
		logger.Get().Warn(ctx, "check failed",
			logger.String("sample", f.Sample),
			logger.Int("status", f.Status),
			logger.Error(f.Err))
	}
}
