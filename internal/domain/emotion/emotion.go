// Package emotion defines emotion labels, scores and the classifier contract.
package emotion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Label is an emotion name produced by a classifier.
type Label string

// The closed vocabulary of emotion-english-distilroberta-base.
const (
	Anger    Label = "anger"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Joy      Label = "joy"
	Neutral  Label = "neutral"
	Sadness  Label = "sadness"
	Surprise Label = "surprise"
)

// Labels lists the vocabulary in the order classifiers report it.
var Labels = []Label{Anger, Disgust, Fear, Joy, Neutral, Sadness, Surprise}

// Sentinel errors.
var (
	ErrMalformedScores = errors.New("malformed emotion scores")
)

// Score pairs a label with the classifier's probability for it.
type Score struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Classifier scores text against the emotion vocabulary. Implementations
// return one score per label they know; scores need not sum to 1.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Score, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) ([]Score, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]Score, error) {
	return f(ctx, text)
}

// ParseLabel normalizes s. Unknown labels are returned as-is so callers can
// still display them.
func ParseLabel(s string) Label {
	return Label(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether l belongs to the vocabulary.
func Known(l Label) bool {
	return slices.Contains(Labels, l)
}

// Top returns up to n scores ordered by descending score. Equal scores keep
// their input order. The input slice is not modified.
func Top(scores []Score, n int) []Score {
	if n <= 0 || len(scores) == 0 {
		return []Score{}
	}
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Best returns the highest-scoring entry.
func Best(scores []Score) (Score, bool) {
	top := Top(scores, 1)
	if len(top) == 0 {
		return Score{}, false
	}
	return top[0], true
}

// Validate rejects empty results and scores outside [0,1].
func Validate(scores []Score) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w: no scores", ErrMalformedScores)
	}
	for _, s := range scores {
		if s.Label == "" {
			return fmt.Errorf("%w: empty label", ErrMalformedScores)
		}
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			return fmt.Errorf("%w: %s=%v out of range", ErrMalformedScores, s.Label, s.Score)
		}
	}
	return nil
}

// LabelsOf returns the labels of scores, in order.
func LabelsOf(scores []Score) []Label {
	out := make([]Label, len(scores))
	for i, s := range scores {
		out[i] = s.Label
	}
	return out
}

// Percent renders a score the way the results page shows it, e.g. "87%".
func (s Score) Percent() string {
	return fmt.Sprintf("%.0f%%", math.Round(s.Score*100))
}
