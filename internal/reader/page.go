// Package reader extracts the readable title and text of an article page.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

// Getter fetches a page body. source.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Text    string `json:"-"`
}

var pageHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.8",
}

// Fetch downloads pageURL through getter and extracts it.
func Fetch(ctx context.Context, getter Getter, pageURL string) (Page, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return Page{}, fmt.Errorf("page URL is required")
	}
	if getter == nil {
		return Page{}, fmt.Errorf("page getter is nil")
	}

	body, err := getter.Get(ctx, page, pageHeaders)
	if err != nil {
		return Page{}, err
	}
	return Extract(body, page)
}

// Extract parses an HTML document. The title falls back to the first line
// of the readable text when the document has none.
func Extract(body []byte, pageURL string) (Page, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return Page{}, fmt.Errorf("parse page url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return Page{}, fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return Page{}, fmt.Errorf("render readability text: %w", err)
	}

	result := Page{
		URL:     parsedURL.String(),
		Title:   CleanText(article.Title()),
		Excerpt: CleanText(article.Excerpt()),
		Text:    CleanText(rendered.String()),
	}
	if result.Title == "" {
		result.Title = firstLine(result.Text)
	}
	if result.Title == "" {
		return Page{}, fmt.Errorf("reader extracted no title from %s", parsedURL)
	}
	return result, nil
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(line), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.Join(paragraphs, "\n\n")
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
