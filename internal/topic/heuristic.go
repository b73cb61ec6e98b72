package topic

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxTagLength      = 20
	maxTags           = 2
	maxCapitalized    = 3
	maxFallbackWords  = 4
	truncationMarker  = "..."
	unknownTopicLabel = "Unknown"
)

// Capitalized words that start headlines without naming a subject.
var leadingStopWords = map[string]struct{}{
	"Why":   {},
	"How":   {},
	"What":  {},
	"When":  {},
	"Who":   {},
	"Where": {},
	"The":   {},
	"A":     {},
	"An":    {},
	"Is":    {},
	"Are":   {},
}

type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

func (h *HeuristicExtractor) Extract(_ context.Context, title string, tags []string) string {
	return h.extractNormalized(Normalize(title), tags)
}

// extractNormalized expects a title already passed through Normalize.
func (h *HeuristicExtractor) extractNormalized(title string, tags []string) string {
	if label := tagLabel(tags); label != "" {
		return label
	}

	if title == "" {
		return unknownTopicLabel
	}

	words := strings.Fields(title)

	capitalized := make([]string, 0, maxCapitalized)
	for _, word := range words {
		if !startsUpper(word) || utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, skip := leadingStopWords[word]; skip {
			continue
		}
		capitalized = append(capitalized, word)
		if len(capitalized) == maxCapitalized {
			break
		}
	}
	if len(capitalized) > 0 {
		return strings.Join(capitalized, " ")
	}

	if len(words) <= maxFallbackWords {
		return title
	}
	return strings.Join(words[:maxFallbackWords], " ") + truncationMarker
}

func tagLabel(tags []string) string {
	valid := make([]string, 0, maxTags)
	for _, tag := range tags {
		if tag == "" || utf8.RuneCountInString(tag) >= maxTagLength {
			continue
		}
		if strings.ToLower(tag) == "news" {
			continue
		}
		valid = append(valid, tag)
		if len(valid) == maxTags {
			break
		}
	}
	return strings.Join(valid, " / ")
}

func startsUpper(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return r != utf8.RuneError && unicode.IsUpper(r)
}
