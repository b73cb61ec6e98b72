package signalschema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateSignalBatch_Valid(t *testing.T) {
	payload := json.RawMessage(`[
		{
			"date":"2026-02-14",
			"source":"RSS",
			"trend":"",
			"url":"https://example.com/story/1",
			"raw_text":"Roblox launches creator fund",
			"trend_score":100,
			"metric_label":"News Feature",
			"tags":["Gaming","News"]
		},
		{
			"date":"2026-02-14",
			"source":"Scraper",
			"trend":"Bluey",
			"url":"",
			"raw_text":"Bluey special breaks records"
		}
	]`)

	signals, err := ValidateSignalBatch(payload)
	if err != nil {
		t.Fatalf("expected batch to be valid, got error: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].TrendScore != 100 || len(signals[0].Tags) != 2 {
		t.Fatalf("unexpected first signal: %+v", signals[0])
	}
	if signals[1].TrendScore != 0 || signals[1].MetricLabel != "" {
		t.Fatalf("expected optional fields to default, got %+v", signals[1])
	}
}

func TestValidateSignalBatch_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`[{"date":"2026-02-14","source":"RSS","trend":"x","raw_text":"missing url"}]`)

	_, err := ValidateSignalBatch(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for missing url")
	}
}

func TestValidateSignalBatch_BadDate(t *testing.T) {
	payload := json.RawMessage(`[{"date":"14/02/2026","source":"RSS","trend":"x","url":"","raw_text":"bad date"}]`)

	_, err := ValidateSignalBatch(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for non-ISO date")
	}
}

func TestValidateSignalBatch_NegativeScore(t *testing.T) {
	payload := json.RawMessage(`[{"date":"2026-02-14","source":"RSS","trend":"x","url":"","raw_text":"neg","trend_score":-1}]`)

	_, err := ValidateSignalBatch(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for negative score")
	}
}

func TestValidateSignalBatch_WhitespaceSource(t *testing.T) {
	payload := json.RawMessage(`[{"date":"2026-02-14","source":"   ","trend":"x","url":"","raw_text":"blank source"}]`)

	_, err := ValidateSignalBatch(payload)
	if err == nil {
		t.Fatalf("expected validation to fail for blank source")
	}
	if !strings.Contains(err.Error(), "source") {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestValidateSignalBatch_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`[] []`)

	_, err := ValidateSignalBatch(payload)
	if err == nil {
		t.Fatalf("expected trailing content to fail")
	}
}
