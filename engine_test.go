package newswatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Markets</title>
<item>
  <title>Reliance Industries announces bonus issue</title>
  <description>Board approves &lt;b&gt;1:1 bonus&lt;/b&gt; shares.</description>
  <link>https://www.moneycontrol.com/news/reliance-bonus</link>
  <pubDate>Mon, 02 Jun 2025 10:30:00 +0530</pubDate>
</item>
<item>
  <title>Monsoon forecast upgraded</title>
  <description>IMD sees above normal rains.</description>
  <link>https://example.com/monsoon</link>
  <pubDate>not a real date</pubDate>
</item>
</channel></rss>`

func newTestEngine(t *testing.T, feedURLs ...string) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
		FeedURLs: feedURLs,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func serveFeed(t *testing.T, doc string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNewEngine(t *testing.T) {
	engine := newTestEngine(t)
	if engine.store == nil {
		t.Fatal("store is nil")
	}
	if engine.fetcher == nil {
		t.Fatal("fetcher is nil")
	}
	if engine.queue == nil {
		t.Fatal("queue is nil")
	}
}

func TestSearchIngestsMatches(t *testing.T) {
	engine := newTestEngine(t, serveFeed(t, testFeed))

	results, err := engine.Search(context.Background(), []string{"Reliance"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Matches != 1 || r.NewNews != 1 {
		t.Errorf("Expected 1 match and 1 new, got %+v", r)
	}

	news, err := engine.NewsForKeyword(r.KeywordID, 10, 0)
	if err != nil {
		t.Fatalf("NewsForKeyword: %v", err)
	}
	if len(news) != 1 {
		t.Fatalf("Expected 1 stored news, got %d", len(news))
	}
	if news[0].Source == nil || news[0].Source.Code != "MC" {
		t.Errorf("Expected MoneyControl source, got %+v", news[0].Source)
	}
	if strings.Contains(news[0].Summary, "<b>") {
		t.Errorf("Summary HTML was not stripped: %q", news[0].Summary)
	}
	if news[0].Analysed {
		t.Error("Fresh news should not be analysed")
	}
}

func TestSearchDeduplicatesAcrossRuns(t *testing.T) {
	engine := newTestEngine(t, serveFeed(t, testFeed))

	first, err := engine.Search(context.Background(), []string{"Reliance"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := engine.Search(context.Background(), []string{"Reliance"})
	if err != nil {
		t.Fatalf("Search (second run): %v", err)
	}
	if second[0].NewNews != 0 {
		t.Errorf("Second run should create nothing, got %d new", second[0].NewNews)
	}
	if second[0].KeywordID != first[0].KeywordID {
		t.Errorf("Keyword ID changed between runs: %d vs %d",
			first[0].KeywordID, second[0].KeywordID)
	}

	progress, err := engine.Progress(first[0].KeywordID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress.TotalNews != 1 {
		t.Errorf("Expected 1 total news after two runs, got %d", progress.TotalNews)
	}
}

func TestSearchCreatesKeywordWithoutMatches(t *testing.T) {
	engine := newTestEngine(t, serveFeed(t, testFeed))

	results, err := engine.Search(context.Background(), []string{"ZOMATO"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Matches != 0 {
		t.Errorf("Expected no matches, got %d", results[0].Matches)
	}
	if results[0].KeywordID == 0 {
		t.Fatal("Keyword should be created even without matches")
	}

	progress, err := engine.Progress(results[0].KeywordID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress.TotalNews != 0 || progress.AnalysedNews != 0 {
		t.Errorf("Expected zero progress, got %+v", progress)
	}
}

func TestSearchFallsBackToNowForBadDates(t *testing.T) {
	engine := newTestEngine(t, serveFeed(t, testFeed))

	results, err := engine.Search(context.Background(), []string{"Monsoon"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	news, err := engine.NewsForKeyword(results[0].KeywordID, 10, 0)
	if err != nil {
		t.Fatalf("NewsForKeyword: %v", err)
	}
	if len(news) != 1 {
		t.Fatalf("Expected 1 news, got %d", len(news))
	}
	if news[0].PublishedAt.IsZero() {
		t.Error("Unparseable date should fall back to current time, not zero")
	}
}

func TestProgressUnknownKeyword(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Progress(12345)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestReanalyzeUnknownNews(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.Reanalyze(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFetchAndRemoveContent(t *testing.T) {
	article := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
			<p>The company reported a sharp rise in quarterly net profit on strong demand.</p>
			<p>Management raised full year guidance citing a robust order pipeline.</p>
		</article></body></html>`)
	}))
	defer article.Close()

	feed := fmt.Sprintf(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title>INFY results</title><description>Profit up.</description>
<link>%s/article</link><pubDate>Mon, 02 Jun 2025 10:30:00 +0530</pubDate></item>
</channel></rss>`, article.URL)

	engine := newTestEngine(t, serveFeed(t, feed))
	results, err := engine.Search(context.Background(), []string{"INFY"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	news, _ := engine.NewsForKeyword(results[0].KeywordID, 10, 0)
	if len(news) != 1 {
		t.Fatalf("Expected 1 news, got %d", len(news))
	}

	content, err := engine.FetchContent(context.Background(), news[0].ID)
	if err != nil {
		t.Fatalf("FetchContent: %v", err)
	}
	if !strings.Contains(content, "net profit") {
		t.Errorf("Unexpected content: %q", content)
	}

	got, _ := engine.GetNews(news[0].ID)
	if got.Content == "" {
		t.Error("Content was not persisted")
	}

	if err := engine.RemoveContent(news[0].ID); err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}
	got, _ = engine.GetNews(news[0].ID)
	if got.Content != "" {
		t.Error("Content was not removed")
	}
}

func TestImportAndSearchStocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.csv")
	data := "symbol,name,sector\nRELIANCE,Reliance Industries,Energy\nTCS,Tata Consultancy Services,IT\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(t, serveFeed(t, testFeed))

	imported, err := engine.ImportStocks(path)
	if err != nil {
		t.Fatalf("ImportStocks: %v", err)
	}
	if imported != 2 {
		t.Fatalf("Expected 2 imported, got %d", imported)
	}

	stocks, err := engine.ListStocks()
	if err != nil {
		t.Fatalf("ListStocks: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("Expected 2 stocks, got %d", len(stocks))
	}

	var relianceID int64
	for _, s := range stocks {
		if s.Symbol == "RELIANCE" {
			relianceID = s.ID
			if s.Sector != "Energy" {
				t.Errorf("Expected Energy sector, got %q", s.Sector)
			}
		}
	}
	results, err := engine.SearchStocks(context.Background(), []int64{relianceID})
	if err != nil {
		t.Fatalf("SearchStocks: %v", err)
	}
	if results[0].Keyword != "RELIANCE" {
		t.Errorf("Expected search by symbol, got %q", results[0].Keyword)
	}
	if results[0].Matches != 1 {
		t.Errorf("Expected 1 match for RELIANCE, got %d", results[0].Matches)
	}
}

func TestSearchStocksUnknownIDs(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.SearchStocks(context.Background(), []int64{42})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
