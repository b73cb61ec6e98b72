package app

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CyanTarantula/trend-pulse/internal/classify"
	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/reader"
	"github.com/CyanTarantula/trend-pulse/internal/source"
	"github.com/CyanTarantula/trend-pulse/internal/topic"
)

type topicOutput struct {
	URL        string   `json:"url,omitempty"`
	Title      string   `json:"title"`
	Tags       []string `json:"tags,omitempty"`
	Normalized string   `json:"normalized"`
	Topic      string   `json:"topic"`
	Category   string   `json:"category"`
}

func runTopic(args []string) int {
	fs := flag.NewFlagSet("topic", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	title := fs.String("title", "", "Title to extract a topic from")
	pageURL := fs.String("url", "", "Article URL whose readable title is used when --title is empty")
	tags := fs.String("tags", "", "Comma-separated structured tags")
	heuristic := fs.Bool("heuristic", false, "Skip the embedding provider and use the heuristic extractor")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if strings.TrimSpace(*title) == "" && strings.TrimSpace(*pageURL) == "" {
		fmt.Fprintln(os.Stderr, "--title or --url is required")
		return 2
	}

	cfg, logger, ok := loadRuntime(envLoader)
	if !ok {
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	text := *title
	if strings.TrimSpace(text) == "" {
		fetcher := source.NewFetcher(source.FetcherOptions{
			UserAgent:   cfg.FetchUserAgent,
			Timeout:     cfg.FetchTimeout,
			RatePerHost: cfg.FetchRatePerHost,
		})
		page, err := reader.Fetch(ctx, fetcher, *pageURL)
		if err != nil {
			logger.Error().Err(err).Str("url", *pageURL).Msg("article fetch failed")
			fmt.Fprintf(os.Stderr, "Fetch article failed: %v\n", err)
			return 1
		}
		text = page.Title
	}

	var extractor topic.Extractor = topic.NewHeuristicExtractor()
	if !*heuristic {
		extractor = buildExtractor(ctx, cfg, logger)
	}

	tagList := parseTags(*tags)
	out := topicOutput{
		URL:        strings.TrimSpace(*pageURL),
		Title:      text,
		Tags:       tagList,
		Normalized: topic.Normalize(text),
		Topic:      extractor.Extract(ctx, text, tagList),
		Category:   classify.Classify(text).String(),
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Encode output failed: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}

func parseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
