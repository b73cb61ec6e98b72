package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

const (
	GoogleTrendsSource     = "Google Trends"
	googleTrendsFeedURL    = "https://trends.google.com/trending/rss"
	googleTrendsExploreURL = "https://trends.google.com/trends/explore"
	googleTrendsMaxItems   = 20
)

type GoogleTrendsOptions struct {
	Geo string
	// FeedURL overrides the trending RSS endpoint.
	FeedURL string
}

// GoogleTrends reads the daily trending searches RSS feed. Each entry title is
// already a topic, so Trend is set directly.
type GoogleTrends struct {
	fetcher *Fetcher
	feedURL string
}

func NewGoogleTrends(fetcher *Fetcher, opts GoogleTrendsOptions) *GoogleTrends {
	feedURL := strings.TrimSpace(opts.FeedURL)
	if feedURL == "" {
		geo := strings.ToUpper(strings.TrimSpace(opts.Geo))
		if geo == "" {
			geo = "US"
		}
		feedURL = googleTrendsFeedURL + "?geo=" + url.QueryEscape(geo)
	}
	return &GoogleTrends{fetcher: fetcher, feedURL: feedURL}
}

func (g *GoogleTrends) Name() string {
	return GoogleTrendsSource
}

func (g *GoogleTrends) Fetch(ctx context.Context) ([]signal.RawSignal, error) {
	body, err := g.fetcher.Get(ctx, g.feedURL, map[string]string{
		"Accept":  "application/xml,application/xhtml+xml,text/xml;q=0.9,text/plain;q=0.8",
		"Referer": "https://trends.google.com/",
	})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse google trends feed: %w", err)
	}

	today := globaltime.Today()
	signals := make([]signal.RawSignal, 0, min(len(feed.Items), googleTrendsMaxItems))
	for _, item := range feed.Items {
		if len(signals) == googleTrendsMaxItems {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		traffic := approxTraffic(item)
		metric := traffic
		if metric == "" {
			metric = "N/A"
		}
		signals = append(signals, signal.RawSignal{
			Date:        today,
			Source:      GoogleTrendsSource,
			Trend:       title,
			URL:         googleTrendsExploreURL + "?q=" + url.QueryEscape(title),
			RawText:     title,
			TrendScore:  parseTraffic(traffic),
			MetricLabel: metric + " Searches",
		})
	}
	return signals, nil
}

// approxTraffic reads the <ht:approx_traffic> extension, e.g. "50,000+".
func approxTraffic(item *gofeed.Item) string {
	if item == nil || item.Extensions == nil {
		return ""
	}
	values := item.Extensions["ht"]["approx_traffic"]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func parseTraffic(raw string) int {
	cleaned := strings.NewReplacer(",", "", "+", "").Replace(strings.TrimSpace(raw))
	score, err := strconv.Atoi(cleaned)
	if err != nil || score < 0 {
		return 0
	}
	return score
}
