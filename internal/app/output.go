package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/db"
)

const (
	outputFormatTable = "table"
	outputFormatJSON  = "json"
)

// listing renders command results either as aligned columns or as indented
// JSON of the underlying views.
type listing struct {
	format  string
	headers []string
	rows    [][]string
	views   any
}

func newListing(rawFormat string, headers ...string) (*listing, error) {
	format := strings.ToLower(strings.TrimSpace(rawFormat))
	switch format {
	case "":
		format = outputFormatTable
	case outputFormatTable, outputFormatJSON:
	default:
		return nil, fmt.Errorf("--format must be table or json")
	}
	return &listing{format: format, headers: headers}, nil
}

func (l *listing) addRow(cells ...string) {
	l.rows = append(l.rows, cells)
}

func (l *listing) render(w io.Writer) error {
	if l.format == outputFormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(l.views)
	}

	writer := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, strings.Join(l.headers, "\t"))
	for _, row := range l.rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

// clip shortens value to maxLen runes, marking the cut with "...".
func clip(value string, maxLen int) string {
	trimmed := strings.TrimSpace(value)
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	runes := []rune(trimmed)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func formatTimestamp(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

// connectPool opens the configured database for a read or admin command. The
// caller cancels the context and closes the pool.
func connectPool(timeout time.Duration, envLoader *cli.EnvLoader) (context.Context, context.CancelFunc, *db.Pool, zerolog.Logger, error) {
	cfg, logger, ok := loadRuntime(envLoader)
	if !ok {
		return nil, nil, nil, logger, fmt.Errorf("runtime setup failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		cancel()
		logger.Error().Err(err).Msg("database connection failed")
		return nil, nil, nil, logger, fmt.Errorf("failed to connect to database: %w", err)
	}
	return ctx, cancel, pool, logger, nil
}
