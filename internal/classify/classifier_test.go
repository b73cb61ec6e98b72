package classify

import (
	"testing"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want signal.Category
	}{
		{text: "Bluey finale breaks streaming records", want: signal.CategoryGenAlpha},
		{text: "TikTok bans new filter", want: signal.CategoryGenZ},
		{text: "Housing Market cools as Interest Rates climb", want: signal.CategoryMillennials},
		{text: "Fed cuts rates", want: signal.CategoryGeneral},
		{text: "", want: signal.CategoryGeneral},
	}

	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q): got %q want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyGenAlphaWinsOverGenZ(t *testing.T) {
	t.Parallel()

	if got := Classify("Roblox adds Cocomelon world"); got != signal.CategoryGenAlpha {
		t.Fatalf("expected Gen Alpha priority, got %q", got)
	}
	if got := Classify("Skibidi toilet memes flood feeds"); got != signal.CategoryGenAlpha {
		t.Fatalf("expected shared keyword to resolve to Gen Alpha, got %q", got)
	}
}

func TestClassifyGenZWinsOverMillennials(t *testing.T) {
	t.Parallel()

	if got := Classify("Gen Z swaps coffee for matcha"); got != signal.CategoryGenZ {
		t.Fatalf("expected Gen Z priority over Millennials, got %q", got)
	}
}

func TestClassifySubstringMatch(t *testing.T) {
	t.Parallel()

	// "alphabet" contains "alpha"; matching is plain substring.
	if got := Classify("Alphabet earnings beat estimates"); got != signal.CategoryGenAlpha {
		t.Fatalf("expected substring match to classify as Gen Alpha, got %q", got)
	}
}
