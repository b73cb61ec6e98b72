// Package source fetches raw signals from feed producers and gathers them
// into one batch.
package source

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

// Producer returns one immutable batch of raw signals per call.
type Producer interface {
	Name() string
	Fetch(ctx context.Context) ([]signal.RawSignal, error)
}

// Report describes one producer call of a collection pass.
type Report struct {
	Producer string        `json:"producer"`
	Signals  int           `json:"signals"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

func (r Report) Failed() bool {
	return r.Err != nil
}

// Collect calls every producer in order and concatenates their batches. A
// failing producer is reported and skipped; it never aborts the pass.
func Collect(ctx context.Context, producers []Producer, logger zerolog.Logger) ([]signal.RawSignal, []Report) {
	all := make([]signal.RawSignal, 0)
	reports := make([]Report, 0, len(producers))

	for _, producer := range producers {
		if producer == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			reports = append(reports, Report{Producer: producer.Name(), Err: err, Error: err.Error()})
			continue
		}

		started := time.Now()
		batch, err := producer.Fetch(ctx)
		report := Report{
			Producer: producer.Name(),
			Signals:  len(batch),
			Duration: time.Since(started),
		}
		if err != nil {
			report.Err = err
			report.Error = err.Error()
			report.Signals = 0
			logger.Error().Err(err).Str("producer", producer.Name()).Msg("producer fetch failed")
			reports = append(reports, report)
			continue
		}

		logger.Info().
			Str("producer", producer.Name()).
			Int("signals", len(batch)).
			Dur("duration", report.Duration).
			Msg("producer fetched")
		all = append(all, batch...)
		reports = append(reports, report)
	}

	logSourceBreakdown(all, logger)
	return all, reports
}

func logSourceBreakdown(signals []signal.RawSignal, logger zerolog.Logger) {
	counts := signal.CountBySource(signals)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	dict := zerolog.Dict()
	for _, name := range names {
		dict = dict.Int(name, counts[name])
	}
	logger.Info().Int("total", len(signals)).Dict("by_source", dict).Msg("signals collected")
}
