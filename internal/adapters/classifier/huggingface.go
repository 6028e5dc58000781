package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/studybuddy/internal/domain/emotion"
)

// Hugging Face defaults.
const (
	DefaultHFEndpoint = "https://router.huggingface.co/hf-inference"
	DefaultHFModel    = "j-hartmann/emotion-english-distilroberta-base"

	maxErrorBody = 512
)

// HFOption configures the Hugging Face classifier.
type HFOption func(*HuggingFace)

// WithHFModel overrides the model id. Empty keeps the default.
func WithHFModel(model string) HFOption {
	return func(h *HuggingFace) {
		if model != "" {
			h.model = model
		}
	}
}

// WithHFEndpoint overrides the inference base URL. Empty keeps the default.
func WithHFEndpoint(endpoint string) HFOption {
	return func(h *HuggingFace) {
		if endpoint != "" {
			h.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithHFTimeout bounds each request.
func WithHFTimeout(d time.Duration) HFOption {
	return func(h *HuggingFace) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithHFHTTPClient replaces the HTTP client.
func WithHFHTTPClient(c *http.Client) HFOption {
	return func(h *HuggingFace) {
		if c != nil {
			h.client = c
		}
	}
}

// HuggingFace calls a text-classification model on the Inference API.
type HuggingFace struct {
	client   *http.Client
	endpoint string
	model    string
	token    string
}

// NewHuggingFace creates the classifier. An empty token is allowed for
// self-hosted endpoints that need no auth.
func NewHuggingFace(token string, opts ...HFOption) (*HuggingFace, error) {
	h := &HuggingFace{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: DefaultHFEndpoint,
		model:    DefaultHFModel,
		token:    token,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

// TopK is sent as null so the pipeline returns every label.
type hfParameters struct {
	TopK *int `json:"top_k"`
}

// Classify implements emotion.Classifier.
func (h *HuggingFace) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	body, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := h.endpoint + "/models/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrUnavailable, resp.Status, strings.TrimSpace(string(data)))
	}

	raw, err := decodeHFScores(data)
	if err != nil {
		return nil, err
	}
	return normalize(raw)
}

// decodeHFScores accepts both the batched [[...]] and flat [...] shapes.
func decodeHFScores(data []byte) ([]emotion.Score, error) {
	var nested [][]emotion.Score
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("%w: empty batch", emotion.ErrMalformedScores)
		}
		return nested[0], nil
	}
	var flat []emotion.Score
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", emotion.ErrMalformedScores, err)
	}
	return flat, nil
}
