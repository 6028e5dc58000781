// Package advice composes the static study advice shown after a request.
package advice

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/studybuddy/internal/domain/emotion"
	"github.com/okian/studybuddy/internal/domain/level"
)

const daysPlaceholder = "{{days}}"

// Sentinel errors.
var (
	ErrInvalidCatalog = errors.New("invalid advice catalog")
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is the swappable advice text.
type Catalog struct {
	EmotionTips map[emotion.Label]string `yaml:"emotion_tips"`
	LevelPlans  map[string]string        `yaml:"level_plans"`
	ExamTips    string                   `yaml:"exam_tips"`
	Discipline  string                   `yaml:"discipline"`
	ExamPlanTpl string                   `yaml:"exam_plan"`
}

// Default returns the embedded catalog. It panics if the embedded document is
// broken, which a unit test guards against.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.EmotionTips) == 0 {
		return fmt.Errorf("%w: no emotion tips", ErrInvalidCatalog)
	}
	for _, l := range []level.Level{level.Beginner, level.Intermediate, level.Advanced} {
		if strings.TrimSpace(c.LevelPlans[l.String()]) == "" {
			return fmt.Errorf("%w: missing plan for %s", ErrInvalidCatalog, l)
		}
	}
	if c.ExamPlanTpl != "" && !strings.Contains(c.ExamPlanTpl, daysPlaceholder) {
		return fmt.Errorf("%w: exam_plan must contain %s", ErrInvalidCatalog, daysPlaceholder)
	}
	return nil
}

// Tip returns the tip for label, or "" for labels without an entry.
func (c *Catalog) Tip(label emotion.Label) string {
	return c.EmotionTips[label]
}

// Plan returns the study plan for lvl.
func (c *Catalog) Plan(lvl level.Level) string {
	return c.LevelPlans[lvl.String()]
}

// ExamPlan fills the exam plan template with days. The value is not checked;
// callers suppress the section for zero days.
func (c *Catalog) ExamPlan(days int) string {
	return strings.ReplaceAll(c.ExamPlanTpl, daysPlaceholder, strconv.Itoa(days))
}
