package topic

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/embedding"
	"github.com/CyanTarantula/trend-pulse/internal/langdetect"
)

const maxNGram = 3

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// SemanticExtractor picks the 1-3 word phrase whose embedding is closest to
// the embedding of the whole title.
type SemanticExtractor struct {
	embedder    embedding.Embedder
	fallback    *HeuristicExtractor
	englishOnly bool
	logger      zerolog.Logger
}

func NewSemanticExtractor(embedder embedding.Embedder, opts Options, logger zerolog.Logger) *SemanticExtractor {
	return &SemanticExtractor{
		embedder:    embedder,
		fallback:    NewHeuristicExtractor(),
		englishOnly: opts.EnglishOnly,
		logger:      logger,
	}
}

func (s *SemanticExtractor) Extract(ctx context.Context, title string, tags []string) string {
	normalized := Normalize(title)

	if s.englishOnly && !langdetect.LooksEnglish(normalized) {
		s.logger.Debug().Str("title", normalized).Msg("semantic extraction skipped for non-English title")
		return s.fallback.extractNormalized(normalized, tags)
	}

	label, err := s.extractSemantic(ctx, normalized)
	if err != nil {
		s.logger.Debug().Err(err).Str("title", normalized).Msg("semantic extraction failed, using heuristic")
		return s.fallback.extractNormalized(normalized, tags)
	}
	return label
}

func (s *SemanticExtractor) extractSemantic(ctx context.Context, text string) (string, error) {
	if isBlank(text) {
		return "", fmt.Errorf("text is empty")
	}

	candidates := Candidates(text)
	if len(candidates) == 0 {
		return text, nil
	}

	inputs := make([]string, 0, len(candidates)+1)
	inputs = append(inputs, text)
	inputs = append(inputs, candidates...)

	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		return "", err
	}
	if len(vectors) != len(inputs) {
		return "", fmt.Errorf("embedding count mismatch: requested=%d returned=%d", len(inputs), len(vectors))
	}

	best, err := bestCandidate(vectors[0], candidates, vectors[1:])
	if err != nil {
		return "", err
	}
	return titleCase(best), nil
}

// bestCandidate returns the highest scoring candidate. Candidates arrive in
// ascending order and ties go to the later one.
func bestCandidate(textVector []float64, candidates []string, candidateVectors [][]float64) (string, error) {
	bestIndex := -1
	bestScore := 0.0
	for i, vector := range candidateVectors {
		score, err := embedding.CosineSimilarity(textVector, vector)
		if err != nil {
			return "", fmt.Errorf("score candidate %q: %w", candidates[i], err)
		}
		if bestIndex < 0 || score >= bestScore {
			bestIndex = i
			bestScore = score
		}
	}
	if bestIndex < 0 {
		return "", fmt.Errorf("no candidate scored")
	}
	return candidates[bestIndex], nil
}

// Candidates returns the unique 1, 2 and 3 word n-grams of text, lower-cased,
// with stop words removed before grouping, sorted ascending.
func Candidates(text string) []string {
	rawTokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(rawTokens))
	for _, token := range rawTokens {
		if _, stop := englishStopWords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}

	seen := make(map[string]struct{})
	candidates := make([]string, 0, len(tokens)*maxNGram)
	for n := 1; n <= maxNGram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			if _, exists := seen[gram]; exists {
				continue
			}
			seen[gram] = struct{}{}
			candidates = append(candidates, gram)
		}
	}
	sort.Strings(candidates)
	return candidates
}

// titleCase upper-cases the first letter of every letter run and lower-cases
// the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
