// Package langdetect gates titles by language before they reach an English
// embedding model.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

const (
	// minLetters is the shortest sample worth running detection on.
	minLetters = 6
	// DefaultMinConfidence is the English confidence a title needs to pass
	// the default gate.
	DefaultMinConfidence = 0.5
)

// feedLanguages are the languages seen in the trend feeds. Restricting the
// detector keeps its models small.
var feedLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Dutch,
	lingua.Indonesian,
	lingua.Tagalog,
	lingua.Hindi,
	lingua.Japanese,
	lingua.Korean,
	lingua.Chinese,
}

// Gate decides whether a text is English. Samples too short to judge pass.
type Gate struct {
	detector      lingua.LanguageDetector
	minConfidence float64
}

func NewGate(minConfidence float64) *Gate {
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	return &Gate{
		detector:      lingua.NewLanguageDetectorBuilder().FromLanguages(feedLanguages...).Build(),
		minConfidence: minConfidence,
	}
}

var defaultGate = sync.OnceValue(func() *Gate {
	return NewGate(DefaultMinConfidence)
})

// DetectISO6391 returns the two letter language code of text, or "" when the
// sample is too short or the language cannot be determined.
func DetectISO6391(text string) string {
	return defaultGate().Detect(text)
}

// LooksEnglish applies the default gate.
func LooksEnglish(text string) bool {
	return defaultGate().Allows(text)
}

func (g *Gate) Detect(text string) string {
	sample, ok := judgeable(text)
	if !ok {
		return ""
	}
	language, exists := g.detector.DetectLanguageOf(sample)
	if !exists {
		return ""
	}
	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func (g *Gate) Allows(text string) bool {
	sample, ok := judgeable(text)
	if !ok {
		return true
	}
	return g.detector.ComputeLanguageConfidence(sample, lingua.English) >= g.minConfidence
}

func judgeable(text string) (string, bool) {
	sample := strings.TrimSpace(text)
	letters := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letters++
			if letters >= minLetters {
				return sample, true
			}
		}
	}
	return "", false
}
