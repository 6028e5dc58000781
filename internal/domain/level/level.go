// Package level guesses a learner's study level from free text.
package level

import (
	"errors"
	"fmt"
	"strings"
)

// Level is a study level used to pick a plan.
type Level int

// Levels, in detection priority order.
const (
	Beginner Level = iota
	Intermediate
	Advanced
)

// Default is returned when no keyword matches.
const Default = Intermediate

// ErrUnknownLevel is returned by Parse.
var ErrUnknownLevel = errors.New("unknown study level")

var names = [...]string{"Beginner", "Intermediate", "Advanced"}

func (l Level) String() string {
	if l < Beginner || l > Advanced {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return names[l]
}

// Parse is case-insensitive.
func Parse(s string) (Level, error) {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Level(i), nil
		}
	}
	return Default, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if l < Beginner || l > Advanced {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(names[l]), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
