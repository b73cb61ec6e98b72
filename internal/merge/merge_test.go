package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

func classified(category signal.Category, date, source, trend, url string, score int) signal.ClassifiedSignal {
	return signal.RawSignal{
		Date:        date,
		Source:      source,
		Trend:       trend,
		URL:         url,
		RawText:     trend + " headline",
		TrendScore:  score,
		MetricLabel: "metric",
	}.Classify(category)
}

func TestSyncInsertsAndRanks(t *testing.T) {
	t.Parallel()

	incoming := []signal.ClassifiedSignal{
		classified(signal.CategoryGenZ, "2024-01-02", "RSS", "Stanley Cup", "https://a.example/1", 50),
		classified(signal.CategoryGenZ, "2024-01-03", "Reddit", "Cozy Cardio", "https://b.example/2", 10),
		classified(signal.CategoryGeneral, "2024-01-04", "RSS", "Fed", "", 999),
		classified(signal.CategoryGenZ, "2024-01-03", "RSS", "Quiet Quitting", "", 40),
	}

	got := Sync(signal.CategoryGenZ, incoming, nil)
	want := []Record{
		{Date: "2024-01-03", Trend: "Quiet Quitting", Source: "RSS", RawText: "Quiet Quitting headline", Score: 40, Metric: "metric"},
		{Date: "2024-01-03", Trend: "Cozy Cardio", Source: "Reddit", URL: "https://b.example/2", RawText: "Cozy Cardio headline", Score: 10, Metric: "metric"},
		{Date: "2024-01-02", Trend: "Stanley Cup", Source: "RSS", URL: "https://a.example/1", RawText: "Stanley Cup headline", Score: 50, Metric: "metric"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestSyncMergesSourcesAndKeepsFirstSeenFields(t *testing.T) {
	t.Parallel()

	existing := []Record{
		{Date: "2024-01-02", Trend: "AI Boom", Source: "Reddit", RawText: "AI Boom hits", Score: 7, Metric: "7 Upvotes"},
	}
	incoming := []signal.ClassifiedSignal{
		classified(signal.CategoryGeneral, "2024-01-02", "RSS", "  ai boom ", "https://news.example/ai", 500),
		classified(signal.CategoryGeneral, "2024-01-02", "Google Trends", "AI BOOM", "https://trends.example/ai", 900),
	}

	got := Sync(signal.CategoryGeneral, incoming, existing)
	want := []Record{
		{
			Date:    "2024-01-02",
			Trend:   "AI Boom",
			Source:  "Google Trends, Reddit, RSS",
			URL:     "https://news.example/ai",
			RawText: "AI Boom hits",
			Score:   7,
			Metric:  "7 Upvotes",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestSyncSourceUnion(t *testing.T) {
	t.Parallel()

	existing := []Record{{Date: "2024-01-02", Trend: "Cozy Cardio", Source: "Reddit", RawText: "x"}}
	incoming := []signal.ClassifiedSignal{
		classified(signal.CategoryGenZ, "2024-01-02", "RSS", "cozy cardio", "", 1),
		classified(signal.CategoryGenZ, "2024-01-02", "RSS", "Cozy Cardio", "", 1),
	}

	got := Sync(signal.CategoryGenZ, incoming, existing)
	if len(got) != 1 || got[0].Source != "Reddit, RSS" {
		t.Fatalf("expected sorted deduplicated sources, got %+v", got)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()

	incoming := []signal.ClassifiedSignal{
		classified(signal.CategoryGenAlpha, "2024-01-02", "Reddit", "Bluey", "", 12),
		classified(signal.CategoryGenAlpha, "2024-01-02", "RSS", "bluey", "https://a.example", 100),
		classified(signal.CategoryGenAlpha, "2024-01-03", "RSS", "Roblox", "https://b.example", 100),
	}

	first := Sync(signal.CategoryGenAlpha, incoming, nil)
	reloaded, dropped := ParseRows(SplitTable(Rows(first)))
	if dropped != 0 {
		t.Fatalf("expected no dropped rows, got %d", dropped)
	}
	second := Sync(signal.CategoryGenAlpha, incoming, reloaded)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second sync changed the table (-first +second):\n%s", diff)
	}
}

func TestSyncKeysAreUnique(t *testing.T) {
	t.Parallel()

	existing := []Record{
		{Date: "2024-01-02", Trend: "Bluey", Source: "RSS", RawText: "old"},
		{Date: "2024-01-02", Trend: "bluey", Source: "Reddit", RawText: "newer"},
		{Date: "2024-01-01", Trend: "Bluey", Source: "RSS", RawText: "yesterday"},
	}
	incoming := []signal.ClassifiedSignal{
		classified(signal.CategoryGenAlpha, "2024-01-02", "Google Trends", "BLUEY", "", 3),
		classified(signal.CategoryGenAlpha, "2024-01-01", "Reddit", " Bluey", "", 3),
	}

	got := Sync(signal.CategoryGenAlpha, incoming, existing)
	seen := make(map[Key]struct{})
	for _, record := range got {
		if _, dup := seen[record.Key()]; dup {
			t.Fatalf("duplicate key %+v in %+v", record.Key(), got)
		}
		seen[record.Key()] = struct{}{}
	}
	if len(got) != 2 {
		t.Fatalf("expected one row per day, got %+v", got)
	}
	if got[0].RawText != "newer" || got[0].Source != "Google Trends, Reddit" {
		t.Fatalf("expected later stored duplicate to win, got %+v", got[0])
	}
}

func TestRankDateDominatesScore(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: "2024-01-02", Trend: "a", Score: 50},
		{Date: "2024-01-03", Trend: "b", Score: 10},
		{Date: "2024-01-03", Trend: "c", Score: 10},
	}
	Rank(records)

	got := []string{records[0].Trend, records[1].Trend, records[2].Trend}
	if diff := cmp.Diff([]string{"b", "c", "a"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestParseRows(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"2024-01-02", "Bluey", "RSS", "", "Bluey text", "120", "News Feature"},
		{"2024-01-02", "Roblox", "Reddit", "https://r.example", "Roblox text", "12k"},
		{"2024-01-02", "Short", "RSS", ""},
		{"2024-01-03", "Minecraft", "RSS", "", "Minecraft text"},
		{"2024-01-03", "Signed", "RSS", "", "text", "-4", ""},
	}

	got, dropped := ParseRows(rows)
	if dropped != 1 {
		t.Fatalf("expected one dropped row, got %d", dropped)
	}
	want := []Record{
		{Date: "2024-01-02", Trend: "Bluey", Source: "RSS", RawText: "Bluey text", Score: 120, Metric: "News Feature"},
		{Date: "2024-01-02", Trend: "Roblox", Source: "Reddit", URL: "https://r.example", RawText: "Roblox text"},
		{Date: "2024-01-03", Trend: "Minecraft", Source: "RSS", RawText: "Minecraft text"},
		{Date: "2024-01-03", Trend: "Signed", Source: "RSS", RawText: "text"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestRowsWritesHeaderFirst(t *testing.T) {
	t.Parallel()

	rows := Rows([]Record{{Date: "2024-01-02", Trend: "Bluey", Source: "RSS", RawText: "x", Score: 5}})
	want := [][]string{
		{"Date", "Trend", "Source", "URL", "Raw Text", "Score", "Metric"},
		{"2024-01-02", "Bluey", "RSS", "", "x", "5", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}

	if got := Rows(nil); len(got) != 1 {
		t.Fatalf("expected header only for empty table, got %v", got)
	}
	if got := SplitTable(rows); len(got) != 1 || got[0][1] != "Bluey" {
		t.Fatalf("expected header stripped, got %v", got)
	}
	if got := SplitTable(nil); got != nil {
		t.Fatalf("expected nil for empty table, got %v", got)
	}
}
