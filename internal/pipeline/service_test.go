package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/merge"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
	"github.com/CyanTarantula/trend-pulse/internal/source"
	"github.com/CyanTarantula/trend-pulse/internal/tablestore"
)

type fakeStore struct {
	*tablestore.Memory
	readErr  map[signal.Category]error
	writeErr map[signal.Category]error
	clears   map[signal.Category]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		Memory:   tablestore.NewMemory(),
		readErr:  make(map[signal.Category]error),
		writeErr: make(map[signal.Category]error),
		clears:   make(map[signal.Category]int),
	}
}

func (f *fakeStore) ReadTable(ctx context.Context, category signal.Category) ([][]string, error) {
	if err := f.readErr[category]; err != nil {
		return nil, err
	}
	return f.Memory.ReadTable(ctx, category)
}

func (f *fakeStore) ClearTable(ctx context.Context, category signal.Category) error {
	f.clears[category]++
	return f.Memory.ClearTable(ctx, category)
}

func (f *fakeStore) WriteTable(ctx context.Context, category signal.Category, rows [][]string) error {
	if err := f.writeErr[category]; err != nil {
		return err
	}
	return f.Memory.WriteTable(ctx, category, rows)
}

type staticProducer struct {
	name    string
	signals []signal.RawSignal
	err     error
}

func (p staticProducer) Name() string { return p.name }

func (p staticProducer) Fetch(context.Context) ([]signal.RawSignal, error) {
	return p.signals, p.err
}

func sampleSignals() []signal.RawSignal {
	return []signal.RawSignal{
		{Date: "2024-01-03", Source: "Google Trends", Trend: "Bluey", RawText: "Bluey", TrendScore: 5000, MetricLabel: "5000+ Searches"},
		{Date: "2024-01-03", Source: "RSS", RawText: "TikTok Shop Expands To Europe - Tech Site", URL: "https://news.example/tiktok", TrendScore: 100, MetricLabel: "News Feature"},
		{Date: "2024-01-03", Source: "Reddit (r/GenZ)", RawText: "housing market is brutal", TrendScore: 300, MetricLabel: "300 Upvotes"},
		{Date: "2024-01-03", Source: "RSS", RawText: "Fed holds steady", Tags: []string{"Economy"}, TrendScore: 100, MetricLabel: "News Feature"},
	}
}

func readRecords(t *testing.T, store TableStore, category signal.Category) []merge.Record {
	t.Helper()

	table, err := store.ReadTable(context.Background(), category)
	if err != nil {
		t.Fatalf("read %s: %v", category, err)
	}
	records, _ := merge.ParseRows(merge.SplitTable(table))
	return records
}

func TestPrepareExtractsAndClassifies(t *testing.T) {
	t.Parallel()

	service := NewService(newFakeStore(), nil, zerolog.Nop())
	classified := service.Prepare(context.Background(), sampleSignals())

	want := []struct {
		trend    string
		category signal.Category
	}{
		{trend: "Bluey", category: signal.CategoryGenAlpha},
		{trend: "TikTok Shop Expands", category: signal.CategoryGenZ},
		{trend: "housing market is brutal", category: signal.CategoryMillennials},
		{trend: "Economy", category: signal.CategoryGeneral},
	}
	if len(classified) != len(want) {
		t.Fatalf("expected %d signals, got %d", len(want), len(classified))
	}
	for i, w := range want {
		if classified[i].Trend != w.trend || classified[i].Category != w.category {
			t.Fatalf("signal %d: got (%q, %q) want (%q, %q)", i, classified[i].Trend, classified[i].Category, w.trend, w.category)
		}
	}
}

func TestRunWritesEveryCategory(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, zerolog.Nop())

	result, err := service.Run(context.Background(), []source.Producer{
		staticProducer{name: "fixture", signals: sampleSignals()},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Outcome, result.Summary())
	}
	if result.RunID == "" || result.Signals != 4 || len(result.Preview) != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.CategoryReports) != len(signal.Categories) || result.RecordsWritten() != 4 {
		t.Fatalf("unexpected category reports: %+v", result.CategoryReports)
	}

	table, _ := store.ReadTable(context.Background(), signal.CategoryGenZ)
	if len(table) != 2 || table[0][0] != "Date" {
		t.Fatalf("expected header plus one row, got %v", table)
	}
	records := readRecords(t, store, signal.CategoryGenZ)
	if records[0].Trend != "TikTok Shop Expands" || records[0].URL != "https://news.example/tiktok" {
		t.Fatalf("unexpected Gen Z record: %+v", records[0])
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, zerolog.Nop())
	producers := []source.Producer{staticProducer{name: "fixture", signals: sampleSignals()}}

	if _, err := service.Run(context.Background(), producers); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readRecords(t, store, signal.CategoryGenAlpha)
	if _, err := service.Run(context.Background(), producers); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readRecords(t, store, signal.CategoryGenAlpha)

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("expected identical tables, got %+v then %+v", first, second)
	}
}

func TestRunSkipsCategoryOnReadFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	ctx := context.Background()
	previous := [][]string{merge.Header, {"2024-01-01", "Old", "RSS", "", "old", "1", ""}}
	if err := store.Memory.WriteTable(ctx, signal.CategoryGenZ, previous); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.readErr[signal.CategoryGenZ] = errors.New("quota exceeded")

	result, err := NewService(store, nil, zerolog.Nop()).Sync(ctx, sampleSignals())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Outcome != OutcomePartial {
		t.Fatalf("expected partial outcome, got %s", result.Outcome)
	}

	report := result.CategoryReports[0]
	if report.Category != signal.CategoryGenZ || report.Status != CategoryReadFailed || !errors.Is(report.Err, ErrStoreRead) {
		t.Fatalf("unexpected report: %+v", report)
	}
	if store.clears[signal.CategoryGenZ] != 0 {
		t.Fatalf("expected skipped category to stay untouched")
	}
	table, _ := store.Memory.ReadTable(ctx, signal.CategoryGenZ)
	if len(table) != 2 || table[1][1] != "Old" {
		t.Fatalf("expected previous data kept, got %v", table)
	}
	if _, ok := result.Tables[signal.CategoryGenZ]; ok {
		t.Fatalf("expected no merged table for skipped category")
	}
}

func TestRunReportsWriteFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	for _, category := range signal.Categories {
		store.writeErr[category] = errors.New("permission denied")
	}

	result, err := NewService(store, nil, zerolog.Nop()).Sync(context.Background(), sampleSignals())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Outcome != OutcomeCategoriesSkipped {
		t.Fatalf("expected categories_skipped, got %s", result.Outcome)
	}
	for _, report := range result.CategoryReports {
		if report.Status != CategoryWriteFailed || !errors.Is(report.Err, ErrStoreWrite) {
			t.Fatalf("unexpected report: %+v", report)
		}
	}
	if result.RecordsWritten() != 0 || result.FailedCategories() != 4 {
		t.Fatalf("unexpected counts: written=%d failed=%d", result.RecordsWritten(), result.FailedCategories())
	}
	if len(result.Tables[signal.CategoryGenAlpha]) != 1 {
		t.Fatalf("expected merged records kept in result")
	}
}

func TestRunSourceFailureIsPartial(t *testing.T) {
	t.Parallel()

	result, err := NewService(newFakeStore(), nil, zerolog.Nop()).Run(context.Background(), []source.Producer{
		staticProducer{name: "down", err: errors.New("timeout")},
		staticProducer{name: "fixture", signals: sampleSignals()},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Outcome != OutcomePartial || result.FailedSources() != 1 {
		t.Fatalf("expected partial outcome from source failure, got %s", result.Outcome)
	}
	if result.Summary() != "down: timeout" {
		t.Fatalf("unexpected summary %q", result.Summary())
	}
}

func TestRunRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, nil, zerolog.Nop()).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected missing store to fail")
	}
}

type recordingLedger struct {
	started  []string
	trigger  string
	finished []Result
	startErr error
}

func (l *recordingLedger) StartRun(_ context.Context, runID, trigger string) error {
	l.started = append(l.started, runID)
	l.trigger = trigger
	return l.startErr
}

func (l *recordingLedger) FinishRun(_ context.Context, result Result) error {
	l.finished = append(l.finished, result)
	return nil
}

func TestRunRecordsLedger(t *testing.T) {
	t.Parallel()

	ledger := &recordingLedger{startErr: errors.New("ledger down")}
	service := NewService(newFakeStore(), nil, zerolog.Nop()).WithLedger(ledger, "manual")

	result, err := service.Sync(context.Background(), sampleSignals())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(ledger.started) != 1 || ledger.started[0] != result.RunID {
		t.Fatalf("started = %v, want [%s]", ledger.started, result.RunID)
	}
	if ledger.trigger != "manual" {
		t.Fatalf("trigger = %q, want manual", ledger.trigger)
	}
	if len(ledger.finished) != 1 {
		t.Fatalf("finished %d runs, want 1", len(ledger.finished))
	}
	if got := ledger.finished[0]; got.Outcome != OutcomeSuccess || got.RecordsWritten() != result.RecordsWritten() {
		t.Fatalf("finished = %+v, want outcome success with %d records", got, result.RecordsWritten())
	}
}
