package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/okian/studybuddy/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitSamples posts every sample Rounds times using a worker pool and
// returns one outcome per submission.
func submitSamples(ctx context.Context, config *Config, samples []Sample) []Outcome {
	logger.Get().Info(ctx, "submitting samples",
		logger.Int("samples", len(samples)),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/guidance"

	jobs := make(chan Sample, config.Workers*WorkerChannelMultiplier)
	var (
		mu       sync.Mutex
		outcomes []Outcome
		wg       sync.WaitGroup
	)

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				o := submitSingle(ctx, client, url, s)
				if config.Verbose {
					logger.Get().Debug(ctx, "sample answered",
						logger.String("sample", o.Sample),
						logger.Int("status", o.Status),
						logger.String("latency", o.Latency.String()),
						logger.Any("error", o.Err))
				}
				mu.Lock()
				outcomes = append(outcomes, o)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for r := 0; r < config.Rounds; r++ {
			for _, s := range samples {
				select {
				case <-ctx.Done():
					return
				case jobs <- s:
				}
			}
		}
	}()

	wg.Wait()
	return outcomes
}

// submitSingle posts one sample and verifies the answer.
func submitSingle(ctx context.Context, client *HTTPClient, url string, s Sample) Outcome {
	start := time.Now()
	o := Outcome{Sample: s.Name}
	resp, err := client.Post(ctx, url, s)
	if err != nil {
		o.Err = fmt.Errorf("request: %w", err)
		return o
	}
	body, err := readResponseBody(resp)
	o.Latency = time.Since(start)
	o.Status = resp.StatusCode
	if err != nil {
		o.Err = fmt.Errorf("read body: %w", err)
		return o
	}
	o.Err = verifyResponse(s, resp.StatusCode, body)
	return o
}
