// Package classify assigns signals to demographic categories.
package classify

import (
	"strings"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

type rule struct {
	category signal.Category
	keywords []string
}

// Keyword lists overlap ("skibidi" is in both Gen Alpha and Gen Z), so the
// rule order decides the category.
var rules = []rule{
	{
		category: signal.CategoryGenAlpha,
		keywords: []string{"skibidi", "ipad kid", "cocomelon", "bluey", "alpha", "sigma"},
	},
	{
		category: signal.CategoryGenZ,
		keywords: []string{"tiktok", "skibidi", "rizz", "gyatt", "fanum", "kai cenat", "mrbeast", "roblox", "fortnite", "gen z", "zoomer"},
	},
	{
		category: signal.CategoryMillennials,
		keywords: []string{"interest rates", "housing market", "inflation", "millennial", "90s", "nostalgia", "work from home", "coffee", "wine"},
	},
}

// Classify returns the first category whose keywords appear in text,
// case-insensitively, or General when none match.
func Classify(text string) signal.Category {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(lower, keyword) {
				return r.category
			}
		}
	}
	return signal.CategoryGeneral
}
