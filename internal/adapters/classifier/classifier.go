// Package classifier provides the emotion classifier backends: a hosted
// Hugging Face model, OpenAI and Gemini zero-shot prompts, and an offline
// keyword lexicon.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/studybuddy/internal/config"
	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/pkg/logger"
	"github.com/okian/studybuddy/pkg/metrics"
)

// Backend names accepted by New.
const (
	BackendLexicon     = "lexicon"
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
	BackendGemini      = "gemini"
)

// New builds the classifier selected by cfg.Backend, wrapped with metrics.
func New(ctx context.Context, cfg config.ClassifierConfig) (emotion.Classifier, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))

	var (
		c   emotion.Classifier
		err error
	)
	switch backend {
	case BackendLexicon:
		c = NewLexicon()
	case BackendHuggingFace:
		c, err = NewHuggingFace(cfg.APIKey,
			WithHFModel(cfg.Model),
			WithHFEndpoint(cfg.Endpoint),
			WithHFTimeout(cfg.Timeout),
		)
	case BackendOpenAI:
		c, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout)
	case BackendGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Get().Info(ctx, "emotion classifier ready", logger.String("backend", backend))
	return Instrument(backend, c), nil
}

// Instrument records latency and failures of c under the backend label.
func Instrument(backend string, c emotion.Classifier) emotion.Classifier {
	return emotion.ClassifierFunc(func(ctx context.Context, text string) ([]emotion.Score, error) {
		start := time.Now()
		scores, err := c.Classify(ctx, text)
		metrics.RecordClassifierLatency(backend, float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			metrics.RecordClassifierError(backend)
		}
		return scores, err
	})
}

// normalize maps raw provider labels onto the vocabulary. The result holds
// every vocabulary label in vocabulary order, zero when the provider omitted
// it. Labels outside the vocabulary are dropped.
func normalize(raw []emotion.Score) ([]emotion.Score, error) {
	if err := emotion.Validate(raw); err != nil {
		return nil, err
	}
	byLabel := make(map[emotion.Label]float64, len(raw))
	for _, s := range raw {
		l := emotion.ParseLabel(string(s.Label))
		if emotion.Known(l) {
			byLabel[l] = s.Score
		}
	}
	if len(byLabel) == 0 {
		return nil, fmt.Errorf("%w: no known labels", emotion.ErrMalformedScores)
	}
	out := make([]emotion.Score, len(emotion.Labels))
	for i, l := range emotion.Labels {
		out[i] = emotion.Score{Label: l, Score: byLabel[l]}
	}
	return out, nil
}

// llmScores is the JSON document the LLM backends are asked to return.
type llmScores struct {
	Scores []emotion.Score `json:"scores"`
}

func parseLLMScores(text string) ([]emotion.Score, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var doc llmScores
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", emotion.ErrMalformedScores, err)
	}
	return normalize(doc.Scores)
}

func labelNames() []string {
	out := make([]string, len(emotion.Labels))
	for i, l := range emotion.Labels {
		out[i] = string(l)
	}
	return out
}

// systemPrompt instructs an LLM to act as a seven-way emotion classifier.
func systemPrompt() string {
	return "You are an emotion classifier for short texts written by students. " +
		"Score the text against each of these emotions: " + strings.Join(labelNames(), ", ") + ". " +
		"Return only JSON of the form {\"scores\":[{\"label\":\"fear\",\"score\":0.7}, ...]} " +
		"with one entry per emotion, each score between 0 and 1, summing to about 1."
}
