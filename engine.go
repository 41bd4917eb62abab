// Package newswatch tracks Indian stock market news by keyword: it searches
// RSS feeds, stores matches, and analyses their sentiment in the background.
package newswatch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/rsharma/newswatch/internal/ai"
	"github.com/rsharma/newswatch/internal/feeds"
	"github.com/rsharma/newswatch/internal/scraper"
	"github.com/rsharma/newswatch/internal/sources"
	"github.com/rsharma/newswatch/internal/storage"
	"github.com/rsharma/newswatch/internal/tasks"
)

// ErrNotFound is returned when a keyword or news record does not exist.
var ErrNotFound = storage.ErrNotFound

// stripTags removes all HTML from RSS summaries before they are stored or
// fed into prompts.
var stripTags = bluemonday.StrictPolicy()

// Engine is the public API for the newswatch pipeline. It wraps the feed
// fetcher, storage, content extractor, and background analysis queue.
type Engine struct {
	store     storage.Store
	fetcher   *feeds.Fetcher
	analysis  *ai.Service
	queue     *tasks.Queue
	extractor *scraper.Extractor
}

// NewEngine creates an engine backed by the given SQLite database. Analysis
// runs on a background worker pool; tasks failing on rate limits or auth
// errors are retried with exponential backoff.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.MaxPerFeed == 0 {
		cfg.MaxPerFeed = 50
	}
	if cfg.FeedConcurrency == 0 {
		cfg.FeedConcurrency = 10
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	fetchOpts := []feeds.Option{
		feeds.WithMaxPerFeed(cfg.MaxPerFeed),
		feeds.WithConcurrency(cfg.FeedConcurrency),
	}
	if len(cfg.FeedURLs) > 0 {
		fetchOpts = append(fetchOpts, feeds.WithFeeds(cfg.FeedURLs))
	}

	analysis := ai.NewService(store, cfg.APIKeys, cfg.Model)

	e := &Engine{
		store:     store,
		fetcher:   feeds.NewFetcher(fetchOpts...),
		analysis:  analysis,
		extractor: scraper.NewExtractor(),
	}
	e.queue = tasks.NewQueue(
		func(ctx context.Context, newsID int64) error {
			_, err := analysis.AnalyzeNews(ctx, newsID)
			return err
		},
		ai.Retryable,
		tasks.WithWorkers(cfg.Workers),
		tasks.WithMaxRetries(cfg.MaxRetries),
	)
	return e, nil
}

// Search runs a keyword search over all feeds, stores the matches, and
// queues new articles for sentiment analysis. A keyword row is created for
// every searched term, matches or not, so progress can be polled by ID.
func (e *Engine) Search(ctx context.Context, keywords []string) ([]SearchResult, error) {
	matches, err := e.fetcher.CheckKeywords(ctx, keywords)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, name := range keywords {
		keyword, err := e.store.GetOrCreateKeyword(name)
		if err != nil {
			return nil, fmt.Errorf("store keyword %q: %w", name, err)
		}

		entries := matches[name]
		created := 0
		for _, entry := range entries {
			isNew, err := e.ingestEntry(keyword.ID, entry)
			if err != nil {
				log.Printf("newswatch: failed to store entry %s: %v", entry.Link, err)
				continue
			}
			if isNew {
				created++
			}
		}
		results = append(results, SearchResult{
			Keyword:   name,
			KeywordID: keyword.ID,
			Matches:   len(entries),
			NewNews:   created,
		})
	}
	return results, nil
}

// SearchStocks runs Search using the symbols of the given stocks as
// keywords.
func (e *Engine) SearchStocks(ctx context.Context, stockIDs []int64) ([]SearchResult, error) {
	stocks, err := e.store.GetStocksByIDs(stockIDs)
	if err != nil {
		return nil, err
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("stocks %v: %w", stockIDs, ErrNotFound)
	}
	keywords := make([]string, len(stocks))
	for i, s := range stocks {
		keywords[i] = s.Symbol
	}
	return e.Search(ctx, keywords)
}

// ingestEntry stores one matched feed entry and queues it for analysis when
// it is new. Duplicate links are returned unchanged and not re-queued.
func (e *Engine) ingestEntry(keywordID int64, entry feeds.Entry) (bool, error) {
	publishedAt := resolvePublished(entry)

	source, err := sources.Resolve(e.store, entry.Link)
	if err != nil {
		return false, err
	}

	n := &storage.News{
		Title:       entry.Title,
		Summary:     stripTags.Sanitize(entry.Summary),
		PublishedAt: publishedAt,
		Link:        entry.Link,
		KeywordID:   keywordID,
		SourceID:    &source.ID,
	}
	stored, created, err := e.store.GetOrCreateNews(n)
	if err != nil {
		return false, err
	}
	if created {
		e.queue.Enqueue(stored.ID)
	}
	return created, nil
}

// resolvePublished picks the entry's publication time. Feeds that gofeed
// could not parse get a second chance as an RFC 2822 date; anything still
// unparseable falls back to now.
func resolvePublished(entry feeds.Entry) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.Published != "" {
		if t, err := mail.ParseDate(entry.Published); err == nil {
			return t
		}
	}
	log.Printf("newswatch: failed to parse date for %s, using current time", entry.Link)
	return time.Now()
}

// Progress reports analysis progress for a keyword.
func (e *Engine) Progress(keywordID int64) (*Progress, error) {
	if _, err := e.store.GetKeyword(keywordID); err != nil {
		return nil, err
	}
	p, err := e.store.KeywordProgress(keywordID)
	if err != nil {
		return nil, err
	}
	return &Progress{TotalNews: p.TotalNews, AnalysedNews: p.AnalysedNews}, nil
}

// Keywords lists all tracked keywords, newest first.
func (e *Engine) Keywords() ([]Keyword, error) {
	stored, err := e.store.ListKeywords()
	if err != nil {
		return nil, err
	}
	keywords := make([]Keyword, len(stored))
	for i, k := range stored {
		keywords[i] = Keyword{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}
	}
	return keywords, nil
}

// GetKeyword returns one keyword by ID.
func (e *Engine) GetKeyword(id int64) (*Keyword, error) {
	k, err := e.store.GetKeyword(id)
	if err != nil {
		return nil, err
	}
	return &Keyword{ID: k.ID, Name: k.Name, CreatedAt: k.CreatedAt}, nil
}

// GetNews returns one news record by ID.
func (e *Engine) GetNews(id int64) (*News, error) {
	n, err := e.store.GetNews(id)
	if err != nil {
		return nil, err
	}
	return e.toNews(n), nil
}

// NewsForKeyword returns a keyword's news, newest publish date first.
func (e *Engine) NewsForKeyword(keywordID int64, limit, offset int) ([]News, error) {
	if limit <= 0 {
		limit = 50
	}
	stored, err := e.store.NewsForKeyword(keywordID, limit, offset)
	if err != nil {
		return nil, err
	}
	news := make([]News, len(stored))
	for i := range stored {
		news[i] = *e.toNews(&stored[i])
	}
	return news, nil
}

// Reanalyze queues a news record for another analysis pass, overwriting any
// previous result when it completes.
func (e *Engine) Reanalyze(newsID int64) error {
	if _, err := e.store.GetNews(newsID); err != nil {
		return err
	}
	e.queue.Enqueue(newsID)
	return nil
}

// FetchContent downloads the full article text for a news record, stores
// it, and returns it. Later analysis passes include it in the prompt.
func (e *Engine) FetchContent(ctx context.Context, newsID int64) (string, error) {
	n, err := e.store.GetNews(newsID)
	if err != nil {
		return "", err
	}
	content, err := e.extractor.Extract(ctx, n.Link)
	if err != nil {
		return "", err
	}
	if err := e.store.SetContent(newsID, content); err != nil {
		return "", err
	}
	return content, nil
}

// RemoveContent deletes a news record's stored article text.
func (e *Engine) RemoveContent(newsID int64) error {
	return e.store.ClearContent(newsID)
}

// ListStocks returns the imported stock universe.
func (e *Engine) ListStocks() ([]Stock, error) {
	stored, err := e.store.ListStocks()
	if err != nil {
		return nil, err
	}
	stocks := make([]Stock, len(stored))
	for i, s := range stored {
		stocks[i] = Stock{ID: s.ID, Symbol: s.Symbol, Name: s.Name, Sector: s.SectorName}
	}
	return stocks, nil
}

// ImportStocks loads stocks from a CSV of symbol,name[,sector] rows.
// Re-importing an existing symbol updates it in place. Returns the number
// of rows imported.
func (e *Engine) ImportStocks(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open stocks file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	imported := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read stocks file: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(record[0]))
		name := strings.TrimSpace(record[1])
		if symbol == "" || strings.EqualFold(symbol, "symbol") {
			continue
		}

		var sectorID *int64
		if len(record) > 2 {
			if sectorName := strings.TrimSpace(record[2]); sectorName != "" {
				sector, err := e.store.GetOrCreateSector(sectorName, "")
				if err != nil {
					return imported, err
				}
				sectorID = &sector.ID
			}
		}
		if _, err := e.store.AddStock(symbol, name, sectorID); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// WaitForAnalysis blocks until the analysis queue has drained, including
// retries waiting on their backoff timer.
func (e *Engine) WaitForAnalysis() {
	e.queue.Wait()
}

// Close stops the analysis workers and closes the database. Queued tasks
// that have not started are dropped.
func (e *Engine) Close() error {
	e.queue.Close()
	return e.store.Close()
}

func (e *Engine) toNews(n *storage.News) *News {
	out := &News{
		ID:                   n.ID,
		Title:                n.Title,
		Summary:              n.Summary,
		Content:              n.Content,
		PublishedAt:          n.PublishedAt,
		Link:                 n.Link,
		KeywordID:            n.KeywordID,
		SentimentScore:       n.SentimentScore,
		SentimentConfidence:  n.SentimentConfidence,
		SentimentExplanation: n.SentimentExplanation,
		MentionedTickers:     n.MentionedTickers,
		Analysed:             n.Analysed(),
	}
	if out.MentionedTickers == nil {
		out.MentionedTickers = []string{}
	}
	if n.SourceID != nil {
		// Source lookup is best effort for display purposes.
		if src, err := e.store.GetSource(*n.SourceID); err == nil {
			out.Source = &Source{ID: src.ID, Code: src.Code, Name: src.Name, Homepage: src.Homepage}
		}
	}
	return out
}
