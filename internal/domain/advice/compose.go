package advice

import (
	"strings"

	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
)

// Bundle is the advice shown for one request.
type Bundle struct {
	Tips       []string `json:"tips"`
	LevelPlan  string   `json:"level_plan"`
	ExamTips   string   `json:"exam_tips"`
	Discipline string   `json:"discipline"`
	ExamPlan   string   `json:"exam_plan,omitempty"`
}

// Compose looks up the advice for emotions (in order), lvl and days. Tips for
// labels missing from the catalog are "". days == 0 leaves ExamPlan empty.
func Compose(c *Catalog, emotions []emotion.Score, lvl level.Level, days int) Bundle {
	b := Bundle{
		Tips:       make([]string, 0, len(emotions)),
		LevelPlan:  c.Plan(lvl),
		ExamTips:   c.ExamTips,
		Discipline: c.Discipline,
	}
	for _, e := range emotions {
		b.Tips = append(b.Tips, c.Tip(e.Label))
	}
	if days != 0 {
		b.ExamPlan = c.ExamPlan(days)
	}
	return b
}

// Markdown renders the bundle as the sections of the results page.
func (b Bundle) Markdown() string {
	var sb strings.Builder
	sb.WriteString("### 🎯 Emotion-Based Advice\n")
	for _, tip := range b.Tips {
		if tip == "" {
			continue
		}
		sb.WriteString("> ")
		sb.WriteString(tip)
		sb.WriteString("\n\n")
	}
	section := func(title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		sb.WriteString("### ")
		sb.WriteString(title)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(body))
		sb.WriteString("\n\n")
	}
	section("📚 Personalized Study Plan", b.LevelPlan)
	section("🗓️ Exam Countdown", b.ExamPlan)
	section("📝 Exam Tips & Tricks", b.ExamTips)
	section("🧘 Discipline & Health Tips", b.Discipline)
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
