package probe

// Corpus returns the fixed sample inputs. Level expectations hold for the
// default keyword profile.
func Corpus() []Sample {
	return []Sample{
		{Name: "beginner-confused", Text: "I'm confused about integrals and scared of the exam", WantLevel: "Beginner"},
		{Name: "beginner-beats-advanced", Text: "Algebra is easy but calculus is a new topic for me", WantLevel: "Beginner"},
		{Name: "intermediate-revision", Text: "Doing revision every evening", WantLevel: "Intermediate"},
		{Name: "intermediate-default", Text: "just tired today", WantLevel: "Intermediate"},
		{Name: "advanced-confident", Text: "I feel confident and happy about chemistry", WantLevel: "Advanced"},
		{Name: "mood-keyword", Text: "Chapter five tonight", Mood: "struggling", WantLevel: "Beginner"},
		{Name: "exam-countdown", Text: "Worried, exam soon", DaysUntilExam: 30},
		{Name: "empty-input", Text: "   ", WantWarning: true},
	}
}
