package app

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/source"
	signalschema "github.com/CyanTarantula/trend-pulse/schema"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Minute, "Run timeout")
	dryRun := fs.Bool("dry-run", false, "Merge against empty in-memory tables and print a preview")
	file := fs.String("file", "", "Path to a JSON signal batch file (required)")
	trigger := fs.String("trigger", "ingest", "Trigger recorded in the sync run ledger")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		return 2
	}
	if *timeout <= 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be > 0")
		return 2
	}

	count, err := validateBatchFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid batch: %v\n", err)
		return 2
	}

	cfg, logger, ok := loadRuntime(envLoader)
	if !ok {
		return 1
	}
	logger.Info().Str("file", path).Int("signals", count).Msg("ingesting signal batch")

	return executeRun(runRequest{
		Command:   "ingest",
		Config:    cfg,
		Logger:    logger,
		Producers: []source.Producer{source.NewFile(path)},
		DryRun:    *dryRun,
		Trigger:   *trigger,
		Timeout:   *timeout,
	})
}

// validateBatchFile returns the number of signals in a valid batch file.
func validateBatchFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if !json.Valid(raw) {
		return 0, fmt.Errorf("%s: malformed JSON", path)
	}
	signals, err := signalschema.ValidateSignalBatch(json.RawMessage(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(signals), nil
}
