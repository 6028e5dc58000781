package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Rounds  int           // Times the corpus is submitted
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	History bool          // Also check GET /history
	LogFile string        // Log file for probe output
	Verbose bool          // Log every response
}

// Sample is one corpus input and what the service must answer.
type Sample struct {
	Name          string `json:"-"`
	Text          string `json:"text"`
	Mood          string `json:"mood,omitempty"`
	DaysUntilExam int    `json:"days_until_exam,omitempty"`

	// WantLevel is the expected study level; empty means any.
	WantLevel string `json:"-"`
	// WantWarning expects the 422 empty-input answer.
	WantWarning bool `json:"-"`
}

// emotionScore mirrors one element of the result "emotions" array.
type emotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// guidanceResponse is the subset of the POST /guidance result the probe checks.
type guidanceResponse struct {
	ID       string         `json:"id"`
	Emotions []emotionScore `json:"emotions"`
	Level    string         `json:"level"`
	Advice   struct {
		Tips      []string `json:"tips"`
		LevelPlan string   `json:"level_plan"`
		ExamPlan  string   `json:"exam_plan"`
	} `json:"advice"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Outcome of a single submission.
type Outcome struct {
	Sample  string
	Status  int
	Latency time.Duration
	Err     error
}

// Stats holds probe statistics.
type Stats struct {
	Submitted  int
	Passed     int
	Failed     int
	Warnings   int
	HistoryLen int
	MaxLatency time.Duration
	Failures   []Outcome
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
