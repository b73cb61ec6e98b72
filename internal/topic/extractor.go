// Package topic reduces feed titles to short topic labels.
//
// Two variants share the Extractor interface: HeuristicExtractor, which is
// deterministic and dependency free, and SemanticExtractor, which ranks n-gram
// candidates by embedding similarity to the title and falls back to the
// heuristic on any failure. New picks the variant once, at construction.
package topic

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/embedding"
)

// Extractor never fails: every error degrades to a heuristic label.
type Extractor interface {
	Extract(ctx context.Context, title string, tags []string) string
}

// Options configure extractor selection.
type Options struct {
	// EnglishOnly makes the semantic variant decline non-English titles.
	EnglishOnly bool
}

// siteSuffixSeparator matches the " - Site Name" style suffixes feeds append
// to titles.
var siteSuffixSeparator = regexp.MustCompile(` [-|:] `)

// Normalize decodes HTML entities and strips a trailing site-name suffix.
func Normalize(title string) string {
	decoded := html.UnescapeString(title)
	return siteSuffixSeparator.Split(decoded, 2)[0]
}

// New returns a SemanticExtractor when embedder answers a single probe, and a
// HeuristicExtractor otherwise.
func New(ctx context.Context, embedder embedding.Embedder, opts Options, logger zerolog.Logger) Extractor {
	heuristic := NewHeuristicExtractor()
	if embedder == nil {
		logger.Info().Msg("no embedding provider configured, using heuristic topic extraction")
		return heuristic
	}

	if err := embedding.Probe(ctx, embedder); err != nil {
		logger.Warn().Err(err).Str("embedder", embedder.Name()).Msg("embedding provider unavailable, falling back to heuristic topic extraction")
		return heuristic
	}

	logger.Info().Str("embedder", embedder.Name()).Bool("english_only", opts.EnglishOnly).Msg("semantic topic extraction enabled")
	return NewSemanticExtractor(embedder, opts, logger)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
