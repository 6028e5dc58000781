package classifier

import (
	"context"
	"strings"
	"unicode"

	"github.com/okian/studybuddy/internal/domain/emotion"
)

// Lexicon weights.
const (
	neutralBaseline = 1.0
	hitWeight       = 2.0
)

// defaultLexicon maps word stems to the emotion they signal. A token matches
// a stem when it starts with it.
var defaultLexicon = map[emotion.Label][]string{
	emotion.Anger:    {"angry", "anger", "annoy", "furious", "frustrat", "irritat", "hate", "rage", "pissed"},
	emotion.Disgust:  {"disgust", "gross", "sick of", "fed up", "awful", "revolting", "nasty"},
	emotion.Fear:     {"afraid", "anxious", "anxiety", "scared", "fear", "nervous", "panic", "stress", "worr", "terrif", "overwhelm", "dread"},
	emotion.Joy:      {"happy", "glad", "excit", "great", "good", "love", "enjoy", "proud", "confident", "motivat", "joy"},
	emotion.Sadness:  {"sad", "down", "depress", "lonely", "unhappy", "cry", "tired", "exhaust", "hopeless", "low", "struggl", "fail"},
	emotion.Surprise: {"surpris", "shock", "unexpect", "suddenly", "wow", "amaz", "didn't expect"},
}

// Lexicon is an offline, deterministic classifier built from word stems.
// Every input yields a score for each vocabulary label; text without any
// stem scores as neutral.
type Lexicon struct {
	stems  map[emotion.Label][]string
	phrase map[emotion.Label][]string
}

// NewLexicon returns a classifier using the built-in lexicon.
func NewLexicon() *Lexicon {
	return NewLexiconFrom(defaultLexicon)
}

// NewLexiconFrom returns a classifier using a custom lexicon. Entries with a
// space are matched as phrases against the whole text.
func NewLexiconFrom(lex map[emotion.Label][]string) *Lexicon {
	l := &Lexicon{
		stems:  make(map[emotion.Label][]string, len(lex)),
		phrase: make(map[emotion.Label][]string, len(lex)),
	}
	for label, words := range lex {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			switch {
			case w == "":
			case strings.ContainsRune(w, ' '):
				l.phrase[label] = append(l.phrase[label], w)
			default:
				l.stems[label] = append(l.stems[label], w)
			}
		}
	}
	return l
}

// Classify implements emotion.Classifier.
func (l *Lexicon) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	weights := make(map[emotion.Label]float64, len(emotion.Labels))
	weights[emotion.Neutral] = neutralBaseline
	total := neutralBaseline

	for _, label := range emotion.Labels {
		for _, tok := range tokens {
			for _, stem := range l.stems[label] {
				if strings.HasPrefix(tok, stem) {
					weights[label] += hitWeight
					total += hitWeight
					break
				}
			}
		}
		for _, p := range l.phrase[label] {
			if n := strings.Count(lower, p); n > 0 {
				weights[label] += hitWeight * float64(n)
				total += hitWeight * float64(n)
			}
		}
	}

	out := make([]emotion.Score, len(emotion.Labels))
	for i, label := range emotion.Labels {
		out[i] = emotion.Score{Label: label, Score: weights[label] / total}
	}
	return out, nil
}
