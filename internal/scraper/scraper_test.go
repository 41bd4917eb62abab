package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractArticleBody(t *testing.T) {
	page := `<html><body>
		<nav><p>tiny</p></nav>
		<article>
			<p>Shares of the company rallied sharply in early trade on Monday.</p>
			<p>Analysts attributed the move to a better than expected order book.</p>
		</article>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	e := NewExtractor()
	content, err := e.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(content, "rallied sharply") {
		t.Errorf("Missing first paragraph: %q", content)
	}
	if !strings.Contains(content, "\n\n") {
		t.Error("Paragraphs should be separated by blank lines")
	}
}

func TestExtractNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><div>ad</div></body></html>")
	}))
	defer srv.Close()

	e := NewExtractor()
	_, err := e.Extract(context.Background(), srv.URL)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewExtractor()
	if _, err := e.Extract(context.Background(), srv.URL); err == nil {
		t.Error("Expected error on non-200 response")
	}
}

func TestSelectorsForKnownPublishers(t *testing.T) {
	got := selectorsFor("https://economictimes.indiatimes.com/markets/article")
	if got[0] != ".artText p" {
		t.Errorf("Unexpected first selector for ET: %q", got[0])
	}
	generic := selectorsFor("https://example.com/story")
	if generic[0] != "article p" {
		t.Errorf("Unexpected generic selector: %q", generic[0])
	}
}
