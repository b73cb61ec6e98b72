package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

const (
	RSSSource          = "RSS"
	rssMaxItemsPerFeed = 10
	rssDefaultScore    = 100
	rssMetricLabel     = "News Feature"
)

// RSS reads news feeds. Trend is left empty so the pipeline extracts a topic
// from the title and the item categories.
type RSS struct {
	fetcher *Fetcher
	feeds   []string
	logger  zerolog.Logger
}

func NewRSS(fetcher *Fetcher, feeds []string, logger zerolog.Logger) *RSS {
	return &RSS{
		fetcher: fetcher,
		feeds:   append([]string(nil), feeds...),
		logger:  logger,
	}
}

func (r *RSS) Name() string {
	return RSSSource
}

// Fetch reads every feed. A failing feed is logged and skipped; Fetch only
// fails when no feed could be read.
func (r *RSS) Fetch(ctx context.Context) ([]signal.RawSignal, error) {
	if len(r.feeds) == 0 {
		return nil, nil
	}

	today := globaltime.Today()
	signals := make([]signal.RawSignal, 0, len(r.feeds)*rssMaxItemsPerFeed)
	var errs []error
	for _, feedURL := range r.feeds {
		items, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			r.logger.Warn().Err(err).Str("feed", feedURL).Msg("rss feed failed")
			errs = append(errs, err)
			continue
		}
		for _, item := range items {
			signals = append(signals, signal.RawSignal{
				Date:        today,
				Source:      RSSSource,
				URL:         strings.TrimSpace(item.Link),
				RawText:     strings.TrimSpace(item.Title),
				TrendScore:  rssDefaultScore,
				MetricLabel: rssMetricLabel,
				Tags:        append([]string(nil), item.Categories...),
			})
		}
	}

	if len(errs) == len(r.feeds) {
		return nil, fmt.Errorf("all %d rss feeds failed: %w", len(r.feeds), errors.Join(errs...))
	}
	return signals, nil
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	body, err := r.fetcher.Get(ctx, feedURL, nil)
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]*gofeed.Item, 0, rssMaxItemsPerFeed)
	for _, item := range feed.Items {
		if len(items) == rssMaxItemsPerFeed {
			break
		}
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
