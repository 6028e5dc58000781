// Package model contains the guidance request and result passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/studybuddy/internal/domain/advice"
	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
)

// Exam countdown bounds, inclusive.
const (
	MinDaysUntilExam = 0
	MaxDaysUntilExam = 365
)

// Request is one learner submission.
type Request struct {
	Text          string `json:"text"`
	Mood          string `json:"mood,omitempty"`
	DaysUntilExam int    `json:"days_until_exam,omitempty"`
}

// Input is the text that is classified and scanned for level keywords:
// Text and Mood joined by a space, trimmed.
func (r Request) Input() string {
	return strings.TrimSpace(r.Text + " " + r.Mood)
}

// DaysInRange reports whether DaysUntilExam is within bounds.
func (r Request) DaysInRange() bool {
	return r.DaysUntilExam >= MinDaysUntilExam && r.DaysUntilExam <= MaxDaysUntilExam
}

// Result is the guidance produced for a Request.
type Result struct {
	ID            string          `json:"id"`
	Emotions      []emotion.Score `json:"emotions"`
	Level         level.Level     `json:"level"`
	LevelKeyword  string          `json:"level_keyword,omitempty"`
	DaysUntilExam int             `json:"days_until_exam"`
	Advice        advice.Bundle   `json:"advice"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TopEmotion returns the strongest emotion, if any.
func (r Result) TopEmotion() (emotion.Score, bool) {
	return emotion.Best(r.Emotions)
}

// Markdown renders the full result as chat-friendly markdown.
func (r Result) Markdown() string {
	var sb strings.Builder
	sb.WriteString("### 🧠 Detected Emotions\n")
	for _, e := range r.Emotions {
		fmt.Fprintf(&sb, "- %s (%s)\n", e.Label, e.Percent())
	}
	fmt.Fprintf(&sb, "\n**Study level:** %s\n\n", r.Level)
	sb.WriteString(r.Advice.Markdown())
	return sb.String()
}
