package probe

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrMismatch marks an answer that does not match the sample expectations.
var ErrMismatch = errors.New("unexpected response")

// verifyResponse checks status and body shape against s.
func verifyResponse(s Sample, status int, body []byte) error {
	if s.WantWarning {
		if status != StatusUnprocessableEntity {
			return fmt.Errorf("%w: status %d, want %d", ErrMismatch, status, StatusUnprocessableEntity)
		}
		var e errorResponse
		if err := json.Unmarshal(body, &e); err != nil {
			return fmt.Errorf("%w: warning body: %v", ErrMismatch, err)
		}
		if e.Code != "empty_input" || e.Message == "" {
			return fmt.Errorf("%w: warning %q/%q", ErrMismatch, e.Code, e.Message)
		}
		return nil
	}

	if status != StatusOK {
		return fmt.Errorf("%w: status %d, want %d", ErrMismatch, status, StatusOK)
	}
	var r guidanceResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("%w: result body: %v", ErrMismatch, err)
	}
	return verifyResult(s, r)
}

func verifyResult(s Sample, r guidanceResponse) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrMismatch)
	}
	if len(r.Emotions) == 0 || len(r.Emotions) > maxTopEmotions {
		return fmt.Errorf("%w: %d emotions", ErrMismatch, len(r.Emotions))
	}
	prev := math.Inf(1)
	for _, e := range r.Emotions {
		if e.Score < 0 || e.Score > 1 || e.Score > prev {
			return fmt.Errorf("%w: emotions not sorted in [0,1]", ErrMismatch)
		}
		prev = e.Score
	}
	if len(r.Advice.Tips) != len(r.Emotions) {
		return fmt.Errorf("%w: %d tips for %d emotions", ErrMismatch, len(r.Advice.Tips), len(r.Emotions))
	}
	switch r.Level {
	case "Beginner", "Intermediate", "Advanced":
	default:
		return fmt.Errorf("%w: level %q", ErrMismatch, r.Level)
	}
	if s.WantLevel != "" && r.Level != s.WantLevel {
		return fmt.Errorf("%w: level %s, want %s", ErrMismatch, r.Level, s.WantLevel)
	}
	if r.Advice.LevelPlan == "" {
		return fmt.Errorf("%w: empty level plan", ErrMismatch)
	}
	if (r.Advice.ExamPlan != "") != (s.DaysUntilExam != 0) {
		return fmt.Errorf("%w: exam plan present=%t for %d days", ErrMismatch, r.Advice.ExamPlan != "", s.DaysUntilExam)
	}
	return nil
}
