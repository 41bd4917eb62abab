package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func rssDocument(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` +
		strings.Join(items, "") + `</channel></rss>`
}

func rssItem(title, summary, link string) string {
	var b strings.Builder
	b.WriteString("<item>")
	fmt.Fprintf(&b, "<title>%s</title>", title)
	fmt.Fprintf(&b, "<description>%s</description>", summary)
	if link != "" {
		fmt.Fprintf(&b, "<link>%s</link>", link)
	}
	b.WriteString("<pubDate>Mon, 02 Jun 2025 10:30:00 +0530</pubDate></item>")
	return b.String()
}

func serveRSS(t *testing.T, doc string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckKeywordsCaseInsensitive(t *testing.T) {
	srv := serveRSS(t, rssDocument(
		rssItem("Reliance Industries surges on refining margins", "Strong quarter.", "https://example.com/ril-1"),
		rssItem("Unrelated headline", "Nothing to see.", "https://example.com/other"),
		rssItem("Markets steady", "reliance in focus ahead of AGM", "https://example.com/ril-2"),
	))

	f := NewFetcher(WithFeeds([]string{srv.URL}))
	results, err := f.CheckKeywords(context.Background(), []string{"RELIANCE"})
	if err != nil {
		t.Fatalf("CheckKeywords failed: %v", err)
	}

	entries := results["RELIANCE"]
	if len(entries) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(entries))
	}
	if entries[0].PublishedParsed == nil {
		t.Error("Expected pubDate to be parsed")
	}
}

func TestCheckKeywordsSkipsEntriesWithoutLink(t *testing.T) {
	srv := serveRSS(t, rssDocument(
		rssItem("TCS wins deal", "Large contract.", ""),
		rssItem("TCS hiring update", "Headcount grows.", "https://example.com/tcs"),
	))

	f := NewFetcher(WithFeeds([]string{srv.URL}))
	results, err := f.CheckKeywords(context.Background(), []string{"TCS"})
	if err != nil {
		t.Fatalf("CheckKeywords failed: %v", err)
	}
	if len(results["TCS"]) != 1 {
		t.Fatalf("Expected 1 match after skipping linkless entry, got %d", len(results["TCS"]))
	}
	if results["TCS"][0].Link != "https://example.com/tcs" {
		t.Errorf("Wrong entry kept: %q", results["TCS"][0].Link)
	}
}

func TestCheckKeywordsNoMatches(t *testing.T) {
	srv := serveRSS(t, rssDocument(
		rssItem("Weather report", "Sunny.", "https://example.com/weather"),
	))

	f := NewFetcher(WithFeeds([]string{srv.URL}))
	results, err := f.CheckKeywords(context.Background(), []string{"INFY"})
	if err != nil {
		t.Fatalf("CheckKeywords failed: %v", err)
	}
	if _, ok := results["INFY"]; ok {
		t.Error("Keyword with no matches should be absent from results")
	}
}

func TestCheckKeywordsPartialFailure(t *testing.T) {
	good := serveRSS(t, rssDocument(
		rssItem("Infosys guidance raised", "Upbeat outlook.", "https://example.com/infy"),
	))
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	f := NewFetcher(WithFeeds([]string{good.URL, bad.URL}))
	results, err := f.CheckKeywords(context.Background(), []string{"Infosys"})
	if err != nil {
		t.Fatalf("Partial failure should not error: %v", err)
	}
	if len(results["Infosys"]) != 1 {
		t.Fatalf("Expected 1 match from the healthy feed, got %d", len(results["Infosys"]))
	}
}

func TestCheckKeywordsAllFeedsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	f := NewFetcher(WithFeeds([]string{bad.URL, bad.URL + "/b"}))
	_, err := f.CheckKeywords(context.Background(), []string{"SBI"})
	if !errors.Is(err, ErrFeedsUnavailable) {
		t.Errorf("Expected ErrFeedsUnavailable, got %v", err)
	}
}

func TestCheckKeywordsRespectsMaxPerFeed(t *testing.T) {
	var items []string
	for i := 0; i < 10; i++ {
		items = append(items, rssItem(
			fmt.Sprintf("NIFTY update %d", i), "Index news.",
			fmt.Sprintf("https://example.com/nifty/%d", i),
		))
	}
	srv := serveRSS(t, rssDocument(items...))

	f := NewFetcher(WithFeeds([]string{srv.URL}), WithMaxPerFeed(3))
	results, err := f.CheckKeywords(context.Background(), []string{"NIFTY"})
	if err != nil {
		t.Fatalf("CheckKeywords failed: %v", err)
	}
	if len(results["NIFTY"]) != 3 {
		t.Fatalf("Expected 3 matches with cap, got %d", len(results["NIFTY"]))
	}
}

func TestCheckKeywordsDeduplicatesLinksWithinFeed(t *testing.T) {
	srv := serveRSS(t, rssDocument(
		rssItem("Adani stock rallies", "Gains.", "https://example.com/adani"),
		rssItem("Adani stock rallies (update)", "More gains.", "https://example.com/adani"),
	))

	f := NewFetcher(WithFeeds([]string{srv.URL}))
	results, err := f.CheckKeywords(context.Background(), []string{"Adani"})
	if err != nil {
		t.Fatalf("CheckKeywords failed: %v", err)
	}
	if len(results["Adani"]) != 1 {
		t.Fatalf("Expected 1 match after link dedup, got %d", len(results["Adani"]))
	}
}

func TestLoadFeedsDefault(t *testing.T) {
	urls, err := LoadFeeds("")
	if err != nil {
		t.Fatalf("LoadFeeds failed: %v", err)
	}
	if len(urls) != len(AllFeeds()) {
		t.Errorf("Expected built-in registry, got %d feeds", len(urls))
	}
}
