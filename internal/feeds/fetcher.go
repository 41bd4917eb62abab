package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrFeedsUnavailable reports that every configured feed failed to fetch or
// parse. Partial failures are logged but do not surface as errors.
var ErrFeedsUnavailable = errors.New("all feeds failed to fetch or parse")

const (
	defaultMaxPerFeed  = 50
	defaultConcurrency = 10
	perFeedTimeout     = 30 * time.Second
	userAgent          = "newswatch/1.0"
)

// Entry is one feed item that matched a keyword.
type Entry struct {
	Title           string
	Summary         string
	Link            string
	Published       string
	PublishedParsed *time.Time
}

// Fetcher searches RSS feeds for keyword mentions.
type Fetcher struct {
	parser      *gofeed.Parser
	client      *http.Client
	feeds       []string
	maxPerFeed  int
	concurrency int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFeeds replaces the built-in feed registry.
func WithFeeds(urls []string) Option {
	return func(f *Fetcher) { f.feeds = urls }
}

// WithMaxPerFeed caps how many entries of each feed are scanned.
func WithMaxPerFeed(n int) Option {
	return func(f *Fetcher) { f.maxPerFeed = n }
}

// WithConcurrency bounds how many feeds are fetched in parallel.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) { f.concurrency = n }
}

// NewFetcher creates a fetcher over the built-in feed registry.
func NewFetcher(opts ...Option) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	f := &Fetcher{
		parser:      parser,
		client:      &http.Client{},
		feeds:       AllFeeds(),
		maxPerFeed:  defaultMaxPerFeed,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CheckKeywords fetches every configured feed and returns the entries whose
// title or summary contains one of the keywords, grouped by keyword.
// Matching is a case-insensitive substring test. Keywords with no matches
// are absent from the result. The error is non-nil only when every feed
// fails.
func (f *Fetcher) CheckKeywords(ctx context.Context, keywords []string) (map[string][]Entry, error) {
	results := make(map[string][]Entry)
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		successful int
		failed     int
	)
	sem := make(chan struct{}, f.concurrency)

	for _, url := range f.feeds {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			matches, err := f.scanFeed(ctx, url, keywords)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("newswatch: failed to fetch feed %s: %v", url, err)
				failed++
				return
			}
			successful++
			for kw, entries := range matches {
				results[kw] = append(results[kw], entries...)
			}
		}(url)
	}
	wg.Wait()

	log.Printf("newswatch: feed search complete: %d succeeded, %d failed, %d keywords matched",
		successful, failed, len(results))

	if successful == 0 {
		return nil, ErrFeedsUnavailable
	}
	return results, nil
}

// scanFeed fetches one feed and returns its keyword matches. Each link is
// reported at most once per keyword within the feed.
func (f *Fetcher) scanFeed(ctx context.Context, url string, keywords []string) (map[string][]Entry, error) {
	feedCtx, cancel := context.WithTimeout(ctx, perFeedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(feedCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", url, err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}

	items := parsed.Items
	if len(items) > f.maxPerFeed {
		items = items[:f.maxPerFeed]
	}

	matches := make(map[string][]Entry)
	seen := make(map[string]map[string]bool)
	for _, item := range items {
		title := strings.ToLower(item.Title)
		summary := strings.ToLower(item.Description)
		for _, keyword := range keywords {
			kw := strings.ToLower(keyword)
			if !strings.Contains(title, kw) && !strings.Contains(summary, kw) {
				continue
			}
			if item.Link == "" {
				log.Printf("newswatch: entry missing link in %s: %q", url, item.Title)
				continue
			}
			if seen[keyword] == nil {
				seen[keyword] = make(map[string]bool)
			}
			if seen[keyword][item.Link] {
				continue
			}
			seen[keyword][item.Link] = true
			matches[keyword] = append(matches[keyword], Entry{
				Title:           item.Title,
				Summary:         item.Description,
				Link:            item.Link,
				Published:       item.Published,
				PublishedParsed: item.PublishedParsed,
			})
		}
	}
	return matches, nil
}
