package reader

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Stanley cup craze grips millennial parents | Example News</title></head>
<body>
<nav><a href="/">Home</a> <a href="/tech">Tech</a></nav>
<article>
<h1>Stanley cup craze grips millennial parents</h1>
<p>Lines formed before dawn outside big box stores this week as shoppers chased a limited run of insulated tumblers. Many of the people waiting said they had seen the cups all over their feeds and wanted one before the colors sold out again.</p>
<p>Retail analysts say the frenzy follows a familiar pattern. A product gets picked up by a handful of creators, the clips spread across platforms, and within days the item becomes a status symbol that is hard to find on the shelves.</p>
<p>Resale listings appeared within hours of the restock, some at three times the retail price. Store managers said they were limiting purchases to two per customer to keep the shelves from emptying before noon.</p>
</article>
<footer>Copyright Example News</footer>
</body>
</html>`

type fakeGetter struct {
	body    []byte
	err     error
	gotURL  string
	headers map[string]string
}

func (g *fakeGetter) Get(_ context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	g.gotURL = rawURL
	g.headers = headers
	return g.body, g.err
}

func TestExtractArticle(t *testing.T) {
	t.Parallel()

	page, err := Extract([]byte(articleHTML), "https://news.example/stanley")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(page.Title, "Stanley cup craze grips millennial parents") {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if !strings.Contains(page.Text, "insulated tumblers") {
		t.Fatalf("readable text missing article body: %q", page.Text)
	}
	if page.URL != "https://news.example/stanley" {
		t.Fatalf("unexpected url %q", page.URL)
	}
}

func TestFetchUsesGetter(t *testing.T) {
	t.Parallel()

	getter := &fakeGetter{body: []byte(articleHTML)}
	page, err := Fetch(context.Background(), getter, " https://news.example/stanley ")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if getter.gotURL != "https://news.example/stanley" {
		t.Fatalf("fetched %q", getter.gotURL)
	}
	if !strings.Contains(getter.headers["Accept"], "text/html") {
		t.Fatalf("missing html accept header: %v", getter.headers)
	}
	if page.Title == "" {
		t.Fatal("expected a title")
	}
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	if _, err := Fetch(context.Background(), &fakeGetter{}, "  "); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := Fetch(context.Background(), nil, "https://news.example"); err == nil {
		t.Fatal("expected error for nil getter")
	}

	boom := errors.New("status 503")
	if _, err := Fetch(context.Background(), &fakeGetter{err: boom}, "https://news.example"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCleanTextCollapsesWhitespaceAndPreservesParagraphs(t *testing.T) {
	t.Parallel()

	input := "  First   paragraph \n\n Second\tparagraph \r\n\r\nThird line "
	got := CleanText(input)
	want := "First paragraph\n\nSecond paragraph\n\nThird line"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}
