package topic

import (
	"context"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Rates rise &amp; fall - Reuters":     "Rates rise & fall",
		"Cozy cardio | The Verge":             "Cozy cardio",
		"Study: teens sleep less":             "Study: teens sleep less",
		"Gen Z &quot;quiet quitting&quot;":    `Gen Z "quiet quitting"`,
		"Left - Middle - Right":               "Left",
		"Watchlist: What to stream : Variety": "Watchlist: What to stream",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q): got %q want %q", in, got, want)
		}
	}
}

func TestHeuristicExtract(t *testing.T) {
	t.Parallel()

	extractor := NewHeuristicExtractor()
	cases := []struct {
		name  string
		title string
		tags  []string
		want  string
	}{
		{name: "tags win", title: "Anything At All", tags: []string{"Tech", "news", "AI", "Gaming"}, want: "Tech / AI"},
		{name: "long tags skipped", title: "fed cuts rates", tags: []string{"A very long category name", "News"}, want: "fed cuts rates"},
		{name: "capitalized words", title: "Why Gen Z Can't Find Work in 2024", want: "Gen Can't Find"},
		{name: "capitalized after suffix strip", title: "Stanley Cup craze returns - Daily Site", want: "Stanley Cup"},
		{name: "short title verbatim", title: "fed cuts rates", want: "fed cuts rates"},
		{name: "long title truncated", title: "this is a much longer lowercase headline", want: "this is a much..."},
		{name: "empty title", title: "", want: "Unknown"},
		{name: "only stop words capitalized", title: "The rise of it", want: "The rise of it"},
	}

	for _, tc := range cases {
		if got := extractor.Extract(context.Background(), tc.title, tc.tags); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
