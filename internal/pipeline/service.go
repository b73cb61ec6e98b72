// Package pipeline runs one sync pass: collect signals, label and classify
// them, then merge each category into its table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/classify"
	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/merge"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
	"github.com/CyanTarantula/trend-pulse/internal/source"
	"github.com/CyanTarantula/trend-pulse/internal/topic"
)

var (
	ErrStoreRead  = errors.New("table store read failed")
	ErrStoreWrite = errors.New("table store write failed")
)

// TableStore persists one table per category. WriteTable is called on a
// cleared table with the full contents, header first.
type TableStore interface {
	ReadTable(ctx context.Context, category signal.Category) ([][]string, error)
	ClearTable(ctx context.Context, category signal.Category) error
	WriteTable(ctx context.Context, category signal.Category, rows [][]string) error
}

type Outcome string

const (
	// OutcomeSuccess means every source answered and every category was written.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means at least one category was written but a source or
	// another category failed.
	OutcomePartial Outcome = "partial"
	// OutcomeCategoriesSkipped means no category could be written.
	OutcomeCategoriesSkipped Outcome = "categories_skipped"
)

type CategoryStatus string

const (
	CategoryWritten     CategoryStatus = "written"
	CategoryReadFailed  CategoryStatus = "read_failed"
	CategoryWriteFailed CategoryStatus = "write_failed"
)

type CategoryReport struct {
	Category signal.Category `json:"category"`
	Status   CategoryStatus  `json:"status"`
	Incoming int             `json:"incoming"`
	Existing int             `json:"existing"`
	Dropped  int             `json:"dropped_rows"`
	Records  int             `json:"records"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
}

type Result struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Outcome         Outcome          `json:"outcome"`
	Signals         int              `json:"signals"`
	SourceReports   []source.Report  `json:"sources"`
	CategoryReports []CategoryReport `json:"categories"`
	// Tables holds the merged records per category, written or not.
	Tables map[signal.Category][]merge.Record `json:"-"`
	// Preview holds the first classified signals of the run.
	Preview []signal.ClassifiedSignal `json:"preview,omitempty"`
}

// RecordsWritten sums the rows of every category that was written.
func (r Result) RecordsWritten() int {
	total := 0
	for _, report := range r.CategoryReports {
		if report.Status == CategoryWritten {
			total += report.Records
		}
	}
	return total
}

func (r Result) FailedCategories() int {
	failed := 0
	for _, report := range r.CategoryReports {
		if report.Status != CategoryWritten {
			failed++
		}
	}
	return failed
}

func (r Result) FailedSources() int {
	failed := 0
	for _, report := range r.SourceReports {
		if report.Failed() {
			failed++
		}
	}
	return failed
}

// Summary joins every failure message of the run.
func (r Result) Summary() string {
	parts := make([]string, 0)
	for _, report := range r.SourceReports {
		if report.Failed() {
			parts = append(parts, fmt.Sprintf("%s: %s", report.Producer, report.Error))
		}
	}
	for _, report := range r.CategoryReports {
		if report.Status != CategoryWritten {
			parts = append(parts, fmt.Sprintf("%s: %s", report.Category, report.Error))
		}
	}
	return strings.Join(parts, "; ")
}

const previewSize = 3

// RunLedger records the start and end of every run. Ledger failures are
// logged and never fail the run.
type RunLedger interface {
	StartRun(ctx context.Context, runID, trigger string) error
	FinishRun(ctx context.Context, result Result) error
}

type Service struct {
	store     TableStore
	extractor topic.Extractor
	ledger    RunLedger
	trigger   string
	logger    zerolog.Logger
}

func NewService(store TableStore, extractor topic.Extractor, logger zerolog.Logger) *Service {
	if extractor == nil {
		extractor = topic.NewHeuristicExtractor()
	}
	return &Service{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// WithLedger makes the service record each run under trigger.
func (s *Service) WithLedger(ledger RunLedger, trigger string) *Service {
	s.ledger = ledger
	s.trigger = trigger
	return s
}

// Run collects from producers and syncs every category. Failures of single
// producers or categories are recorded in the result; the returned error is
// reserved for a service that cannot run at all.
func (s *Service) Run(ctx context.Context, producers []source.Producer) (Result, error) {
	if s == nil || s.store == nil {
		return Result{}, fmt.Errorf("pipeline service is not initialized")
	}

	result, logger := s.begin(ctx)
	raw, reports := source.Collect(ctx, producers, logger)
	result.SourceReports = reports

	s.finish(ctx, &result, s.Prepare(ctx, raw), logger)
	return result, nil
}

// Sync merges already collected signals into the tables.
func (s *Service) Sync(ctx context.Context, raw []signal.RawSignal) (Result, error) {
	if s == nil || s.store == nil {
		return Result{}, fmt.Errorf("pipeline service is not initialized")
	}

	result, logger := s.begin(ctx)
	s.finish(ctx, &result, s.Prepare(ctx, raw), logger)
	return result, nil
}

func (s *Service) begin(ctx context.Context) (Result, zerolog.Logger) {
	result := Result{
		RunID:     uuid.NewString(),
		StartedAt: globaltime.UTC(),
	}
	logger := s.logger.With().Str("run_id", result.RunID).Logger()

	if s.ledger != nil {
		if err := s.ledger.StartRun(ctx, result.RunID, s.trigger); err != nil {
			logger.Warn().Err(err).Msg("record run start failed")
		}
	}
	return result, logger
}

func (s *Service) finish(ctx context.Context, result *Result, classified []signal.ClassifiedSignal, logger zerolog.Logger) {
	result.Signals = len(classified)
	result.Preview = classified[:min(previewSize, len(classified))]
	result.Tables = make(map[signal.Category][]merge.Record, len(signal.Categories))

	for _, category := range signal.Categories {
		report, records := s.syncCategory(ctx, category, classified, logger)
		result.CategoryReports = append(result.CategoryReports, report)
		if records != nil {
			result.Tables[category] = records
		}
	}

	result.Outcome = outcomeOf(*result)
	result.FinishedAt = globaltime.UTC()
	logger.Info().
		Str("outcome", string(result.Outcome)).
		Int("signals", result.Signals).
		Int("records_written", result.RecordsWritten()).
		Int("categories_failed", result.FailedCategories()).
		Int("sources_failed", result.FailedSources()).
		Msg("sync finished")

	if s.ledger != nil {
		if err := s.ledger.FinishRun(ctx, *result); err != nil {
			logger.Warn().Err(err).Msg("record run finish failed")
		}
	}
}

// Prepare extracts a topic for signals without a trend and assigns every
// signal a category from its raw text.
func (s *Service) Prepare(ctx context.Context, raw []signal.RawSignal) []signal.ClassifiedSignal {
	classified := make([]signal.ClassifiedSignal, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item.Trend) == "" {
			item.Trend = s.extractor.Extract(ctx, item.RawText, item.Tags)
		}
		classified = append(classified, item.Classify(classify.Classify(item.RawText)))
	}
	return classified
}

func (s *Service) syncCategory(ctx context.Context, category signal.Category, classified []signal.ClassifiedSignal, logger zerolog.Logger) (CategoryReport, []merge.Record) {
	report := CategoryReport{Category: category}
	for _, item := range classified {
		if item.Category == category {
			report.Incoming++
		}
	}
	categoryLogger := logger.With().Str("category", category.String()).Logger()

	table, err := s.store.ReadTable(ctx, category)
	if err != nil {
		report.Status = CategoryReadFailed
		report.Err = fmt.Errorf("%w: %s: %v", ErrStoreRead, category, err)
		report.Error = report.Err.Error()
		categoryLogger.Error().Err(err).Msg("read table failed, skipping category")
		return report, nil
	}

	existing, dropped := merge.ParseRows(merge.SplitTable(table))
	report.Existing = len(existing)
	report.Dropped = dropped
	if dropped > 0 {
		categoryLogger.Warn().Int("dropped", dropped).Msg("dropped malformed rows")
	}

	records := merge.Sync(category, classified, existing)
	report.Records = len(records)

	if err := s.store.ClearTable(ctx, category); err != nil {
		return s.writeFailed(report, err, categoryLogger), records
	}
	if err := s.store.WriteTable(ctx, category, merge.Rows(records)); err != nil {
		return s.writeFailed(report, err, categoryLogger), records
	}

	report.Status = CategoryWritten
	categoryLogger.Info().
		Int("records", report.Records).
		Int("incoming", report.Incoming).
		Msg("category synced")
	return report, records
}

func (s *Service) writeFailed(report CategoryReport, err error, logger zerolog.Logger) CategoryReport {
	report.Status = CategoryWriteFailed
	report.Err = fmt.Errorf("%w: %s: %v", ErrStoreWrite, report.Category, err)
	report.Error = report.Err.Error()
	logger.Error().Err(err).Msg("write table failed, merge result lost for this run")
	return report
}

func outcomeOf(result Result) Outcome {
	written := 0
	for _, report := range result.CategoryReports {
		if report.Status == CategoryWritten {
			written++
		}
	}
	switch {
	case written == 0:
		return OutcomeCategoriesSkipped
	case written < len(result.CategoryReports) || result.FailedSources() > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}
