package level

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownProfile is returned by ProfileByName.
var ErrUnknownProfile = errors.New("unknown keyword profile")

// Profile holds the keyword sets checked for each level.
type Profile struct {
	Name         string
	Beginner     []string
	Intermediate []string
	Advanced     []string
}

// Built-in profiles. DefaultProfile is the canonical one; the others are the
// keyword sets of the exam-countdown and mood-field forms.
var (
	DefaultProfile = Profile{
		Name:         "default",
		Beginner:     []string{"don't understand", "confused", "new topic", "hard", "struggling"},
		Intermediate: []string{"understand", "revision", "practice", "somewhat"},
		Advanced:     []string{"easy", "confident", "strong", "good", "mastered"},
	}
	ExamProfile = Profile{
		Name:         "exam",
		Beginner:     []string{"don't understand", "confused", "new topic", "difficult", "hard", "lost"},
		Intermediate: []string{"revision", "practice", "somewhat", "okay", "understand"},
		Advanced:     []string{"easy", "confident", "mastered", "ready", "strong"},
	}
	MoodProfile = Profile{
		Name:         "mood",
		Beginner:     []string{"don't get", "confused", "overwhelmed", "struggling", "hard"},
		Intermediate: []string{"revising", "practice", "average", "somewhat", "understand"},
		Advanced:     []string{"confident", "good", "strong", "ahead", "mastered"},
	}
)

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultProfile, nil
	case "exam":
		return ExamProfile, nil
	case "mood":
		return MoodProfile, nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// Detector maps text to a Level by keyword substring match.
type Detector struct {
	profile Profile
	sets    [3][]string
}

// NewDetector builds a detector for p. Keywords are matched lowercased.
func NewDetector(p Profile) *Detector {
	d := &Detector{profile: p}
	for i, set := range [][]string{p.Beginner, p.Intermediate, p.Advanced} {
		for _, kw := range set {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				d.sets[i] = append(d.sets[i], kw)
			}
		}
	}
	return d
}

// Profile returns the profile the detector was built from.
func (d *Detector) Profile() Profile { return d.profile }

// Detect checks Beginner keywords first, then Intermediate, then Advanced;
// the first set with a match wins. No match yields Intermediate.
func (d *Detector) Detect(text string) Level {
	lvl, _ := d.Match(text)
	return lvl
}

// Match is Detect that also reports the keyword that decided the level.
// The keyword is empty when the default was used.
func (d *Detector) Match(text string) (Level, string) {
	lower := strings.ToLower(text)
	for i, set := range d.sets {
		if idx := slices.IndexFunc(set, func(kw string) bool { return strings.Contains(lower, kw) }); idx >= 0 {
			return Level(i), set[idx]
		}
	}
	return Default, ""
}
