package app

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/db"
)

type syncRunView struct {
	UUID             string `json:"run_uuid"`
	Trigger          string `json:"trigger"`
	Status           string `json:"status"`
	SignalsCollected int    `json:"signals_collected"`
	RecordsWritten   int    `json:"records_written"`
	CategoriesFailed int    `json:"categories_failed"`
	SourcesFailed    int    `json:"sources_failed"`
	Error            string `json:"error,omitempty"`
	StartedAt        string `json:"started_at"`
	FinishedAt       string `json:"finished_at,omitempty"`
}

func runRuns(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 20, "Maximum number of runs to list")
	format := fs.String("format", outputFormatTable, "Output format: table or json")
	timeout := fs.Duration("timeout", 15*time.Second, "Command timeout")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if *limit <= 0 {
		fmt.Fprintln(os.Stderr, "--limit must be > 0")
		return 2
	}
	out, err := newListing(*format, "STARTED", "TRIGGER", "STATUS", "SIGNALS", "RECORDS", "CAT FAILED", "SRC FAILED", "ERROR")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel, pool, _, err := connectPool(*timeout, envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer cancel()
	defer pool.Close()

	rows, err := pool.ListSyncRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List runs failed: %v\n", err)
		return 1
	}

	views := make([]syncRunView, 0, len(rows))
	for _, row := range rows {
		view := toSyncRunView(row)
		views = append(views, view)
		out.addRow(
			view.StartedAt,
			view.Trigger,
			view.Status,
			strconv.Itoa(view.SignalsCollected),
			strconv.Itoa(view.RecordsWritten),
			strconv.Itoa(view.CategoriesFailed),
			strconv.Itoa(view.SourcesFailed),
			clip(view.Error, 60),
		)
	}
	out.views = views

	if err := out.render(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Write output failed: %v\n", err)
		return 1
	}
	return 0
}

func toSyncRunView(row db.SyncRun) syncRunView {
	started := row.StartedAt
	return syncRunView{
		UUID:             row.SyncRunUUID,
		Trigger:          row.Trigger,
		Status:           row.Status,
		SignalsCollected: row.SignalsCollected,
		RecordsWritten:   row.RecordsWritten,
		CategoriesFailed: row.CategoriesFailed,
		SourcesFailed:    row.SourcesFailed,
		Error:            derefString(row.ErrorMessage),
		StartedAt:        formatTimestamp(&started),
		FinishedAt:       formatTimestamp(row.FinishedAt),
	}
}
