package langdetect

import "testing"

func TestDetectISO6391ShortSample(t *testing.T) {
	t.Parallel()

	if got := DetectISO6391("  hi "); got != "" {
		t.Fatalf("expected short sample to be undetermined, got %q", got)
	}
	if !LooksEnglish("ok") {
		t.Fatalf("expected undetermined text to pass the English gate")
	}
}

func TestDetectISO6391English(t *testing.T) {
	t.Parallel()

	if got := DetectISO6391("Teenagers are spending more time on short video platforms than ever before"); got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
}

func TestLooksEnglishRejectsSpanish(t *testing.T) {
	t.Parallel()

	if LooksEnglish("Los jóvenes pasan cada vez más tiempo viendo vídeos cortos en sus teléfonos") {
		t.Fatalf("expected Spanish sentence to fail the English gate")
	}
}

func TestGateThreshold(t *testing.T) {
	t.Parallel()

	strict := NewGate(1)
	if !strict.Allows("tiny") {
		t.Fatalf("expected short sample to pass any gate")
	}
	if strict.minConfidence != 1 {
		t.Fatalf("minConfidence = %v, want 1", strict.minConfidence)
	}
	if got := NewGate(0).minConfidence; got != DefaultMinConfidence {
		t.Fatalf("zero threshold = %v, want default %v", got, DefaultMinConfidence)
	}

	english := "Millennials are rethinking homeownership as mortgage rates stay high"
	if !NewGate(DefaultMinConfidence).Allows(english) {
		t.Fatalf("expected English sentence to pass")
	}
}
