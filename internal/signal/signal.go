// Package signal holds the records that flow from feed producers through
// topic extraction and classification into the merge engine.
package signal

import (
	"fmt"
	"strings"
)

// Category is one of the fixed demographic buckets. The string value is the
// persisted table name.
type Category string

const (
	CategoryGenZ        Category = "Gen Z"
	CategoryMillennials Category = "Millennials"
	CategoryGenAlpha    Category = "Gen Alpha"
	CategoryGeneral     Category = "General"
)

// Categories lists every category in table order.
var Categories = []Category{
	CategoryGenZ,
	CategoryMillennials,
	CategoryGenAlpha,
	CategoryGeneral,
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory resolves a category from its table name or a loose alias such
// as "genz" or "gen-alpha".
func ParseCategory(raw string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	switch key {
	case "genz":
		return CategoryGenZ, nil
	case "millennials", "millennial":
		return CategoryMillennials, nil
	case "genalpha":
		return CategoryGenAlpha, nil
	case "general":
		return CategoryGeneral, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// RawSignal is one producer-supplied item. An empty Trend asks the pipeline
// to extract a topic from RawText and Tags.
type RawSignal struct {
	Date        string   `json:"date"`
	Source      string   `json:"source"`
	Trend       string   `json:"trend"`
	URL         string   `json:"url"`
	RawText     string   `json:"raw_text"`
	TrendScore  int      `json:"trend_score"`
	MetricLabel string   `json:"metric_label"`
	Tags        []string `json:"tags,omitempty"`
}

// ClassifiedSignal is a RawSignal with its category assigned.
type ClassifiedSignal struct {
	RawSignal
	Category Category `json:"category"`
}

// Classify attaches a category.
func (s RawSignal) Classify(category Category) ClassifiedSignal {
	return ClassifiedSignal{RawSignal: s, Category: category}
}

// CountBySource returns how many signals each source produced.
func CountBySource(signals []RawSignal) map[string]int {
	counts := make(map[string]int)
	for _, s := range signals {
		source := s.Source
		if source == "" {
			source = "Unknown"
		}
		counts[source]++
	}
	return counts
}
