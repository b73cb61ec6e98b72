package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

const (
	redditBaseURL  = "https://www.reddit.com"
	redditLinkBase = "https://reddit.com"
	redditLimit    = 25
)

type RedditOptions struct {
	Subreddit string
	// BaseURL overrides the API host.
	BaseURL string
}

// Reddit reads the hot listing of one subreddit. Trend is left empty for
// topic extraction.
type Reddit struct {
	fetcher   *Fetcher
	subreddit string
	baseURL   string
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
	Stickied  bool   `json:"stickied"`
}

func NewReddit(fetcher *Fetcher, opts RedditOptions) *Reddit {
	subreddit := strings.Trim(strings.TrimSpace(opts.Subreddit), "/")
	subreddit = strings.TrimPrefix(subreddit, "r/")
	if subreddit == "" {
		subreddit = "GenZ"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = redditBaseURL
	}
	return &Reddit{fetcher: fetcher, subreddit: subreddit, baseURL: baseURL}
}

func (r *Reddit) Name() string {
	return fmt.Sprintf("Reddit (r/%s)", r.subreddit)
}

func (r *Reddit) Fetch(ctx context.Context) ([]signal.RawSignal, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.baseURL, url.PathEscape(r.subreddit), redditLimit)
	body, err := r.fetcher.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decode reddit listing: %w", err)
	}

	today := globaltime.Today()
	source := r.Name()
	signals := make([]signal.RawSignal, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		title := strings.TrimSpace(post.Title)
		if post.Stickied || title == "" {
			continue
		}
		score := max(post.Score, 0)
		link := ""
		if permalink := strings.TrimSpace(post.Permalink); permalink != "" {
			link = redditLinkBase + permalink
		}
		signals = append(signals, signal.RawSignal{
			Date:        today,
			Source:      source,
			URL:         link,
			RawText:     title,
			TrendScore:  score,
			MetricLabel: fmt.Sprintf("%d Upvotes", score),
		})
	}
	return signals, nil
}
