package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/config"
	"github.com/CyanTarantula/trend-pulse/internal/db"
	"github.com/CyanTarantula/trend-pulse/internal/pipeline"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
	"github.com/CyanTarantula/trend-pulse/internal/source"
	"github.com/CyanTarantula/trend-pulse/internal/tablestore"
)

const (
	sourceGoogleTrends = "google"
	sourceRSS          = "rss"
	sourceReddit       = "reddit"
	sourceNone         = "none"

	defaultSources = sourceGoogleTrends + "," + sourceRSS + "," + sourceReddit
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("value must not be empty")
	}
	*l = append(*l, trimmed)
	return nil
}

func runSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Run timeout")
	dryRun := fs.Bool("dry-run", false, "Merge against empty in-memory tables and print a preview")
	sources := fs.String("sources", defaultSources, "Comma-separated sources to collect: google, rss, reddit or none")
	trigger := fs.String("trigger", "manual", "Trigger recorded in the sync run ledger")
	var files stringList
	fs.Var(&files, "file", "JSON signal batch file to collect as well (repeatable)")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	names, err := parseSourceNames(*sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --sources: %v\n", err)
		return 2
	}
	if len(names) == 0 && len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to collect: --sources is none and no --file was given")
		return 2
	}
	if *timeout <= 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be > 0")
		return 2
	}

	cfg, logger, ok := loadRuntime(envLoader)
	if !ok {
		return 1
	}

	return executeRun(runRequest{
		Command:   "sync",
		Config:    cfg,
		Logger:    logger,
		Producers: buildProducers(cfg, names, files, logger),
		DryRun:    *dryRun,
		Trigger:   *trigger,
		Timeout:   *timeout,
	})
}

// parseSourceNames returns the unique source names in flag order.
func parseSourceNames(raw string) ([]string, error) {
	names := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		switch name {
		case "":
			continue
		case sourceNone:
			return nil, nil
		case sourceGoogleTrends, sourceRSS, sourceReddit:
		default:
			return nil, fmt.Errorf("unknown source %q", part)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func buildProducers(cfg *config.Config, names []string, files []string, logger zerolog.Logger) []source.Producer {
	fetcher := source.NewFetcher(source.FetcherOptions{
		UserAgent:   cfg.FetchUserAgent,
		Timeout:     cfg.FetchTimeout,
		RatePerHost: cfg.FetchRatePerHost,
	})

	producers := make([]source.Producer, 0, len(names)+len(files))
	for _, name := range names {
		switch name {
		case sourceGoogleTrends:
			producers = append(producers, source.NewGoogleTrends(fetcher, source.GoogleTrendsOptions{Geo: cfg.GoogleTrendsGeo}))
		case sourceRSS:
			feeds := cfg.RSSFeedList()
			if len(feeds) == 0 {
				logger.Warn().Msg("RSS_FEEDS is empty, skipping rss source")
				continue
			}
			producers = append(producers, source.NewRSS(fetcher, feeds, logger))
		case sourceReddit:
			producers = append(producers, source.NewReddit(fetcher, source.RedditOptions{Subreddit: cfg.RedditSubreddit}))
		}
	}
	for _, path := range files {
		producers = append(producers, source.NewFile(path))
	}
	return producers
}

type runRequest struct {
	Command   string
	Config    *config.Config
	Logger    zerolog.Logger
	Producers []source.Producer
	DryRun    bool
	Trigger   string
	Timeout   time.Duration
}

func executeRun(req runRequest) int {
	ctx, cancel := signalContext(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, req.Timeout)
	defer cancelTimeout()

	logger := req.Logger.With().Str("command", req.Command).Logger()

	store, pool, err := openStore(ctx, req.Config, req.DryRun, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	if pool != nil {
		defer pool.Close()
	}

	service := pipeline.NewService(store, buildExtractor(ctx, req.Config, logger), logger)
	if pool != nil {
		service.WithLedger(runLedger{pool: pool}, req.Trigger)
	}

	result, err := service.Run(ctx, req.Producers)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", req.Command, err)
		return 1
	}

	printRunResult(os.Stdout, req.Command, result)
	if pool == nil {
		if err := printPreview(os.Stdout, result.Preview); err != nil {
			fmt.Fprintf(os.Stderr, "Preview failed: %v\n", err)
		}
	}
	if summary := result.Summary(); summary != "" {
		fmt.Fprintf(os.Stderr, "Failures: %s\n", summary)
	}

	if result.Outcome == pipeline.OutcomeCategoriesSkipped {
		return 1
	}
	return 0
}

// openStore returns the database pool, or an in-memory store when the run is
// dry or no database is configured. The pool is nil for in-memory runs.
func openStore(ctx context.Context, cfg *config.Config, dryRun bool, logger zerolog.Logger) (pipeline.TableStore, *db.Pool, error) {
	if dryRun {
		logger.Info().Msg("dry run, merging against empty in-memory tables")
		return tablestore.NewMemory(), nil, nil
	}
	if err := cfg.RequireDatabase(); err != nil {
		logger.Warn().Msg("DATABASE_URL is not set, running dry against in-memory tables")
		return tablestore.NewMemory(), nil, nil
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool, nil
}

func printRunResult(w io.Writer, command string, result pipeline.Result) {
	fmt.Fprintf(
		w,
		"%s run_id=%s outcome=%s signals=%d records=%d categories_failed=%d sources_failed=%d\n",
		command,
		result.RunID,
		result.Outcome,
		result.Signals,
		result.RecordsWritten(),
		result.FailedCategories(),
		result.FailedSources(),
	)
	for _, category := range signal.Categories {
		fmt.Fprintf(w, "  %-12s %d\n", category, len(result.Tables[category]))
	}
}

func printPreview(w io.Writer, preview []signal.ClassifiedSignal) error {
	if len(preview) == 0 {
		return nil
	}
	encoded, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	fmt.Fprintln(w, "Preview (first 3 signals):")
	fmt.Fprintln(w, string(encoded))
	return nil
}

// runLedger records runs in the sync_runs table.
type runLedger struct {
	pool *db.Pool
}

const ledgerTimeout = 5 * time.Second

func (l runLedger) StartRun(ctx context.Context, runID, trigger string) error {
	_, err := l.pool.StartSyncRun(ctx, runID, trigger)
	return err
}

// FinishRun still records runs whose context was cancelled or timed out.
func (l runLedger) FinishRun(ctx context.Context, result pipeline.Result) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()

	return l.pool.FinishSyncRun(ctx, result.RunID, string(result.Outcome), db.SyncRunCounts{
		SignalsCollected: result.Signals,
		RecordsWritten:   result.RecordsWritten(),
		CategoriesFailed: result.FailedCategories(),
		SourcesFailed:    result.FailedSources(),
	}, result.Summary())
}
