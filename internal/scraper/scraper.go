// Package scraper extracts full article text from publisher pages for
// analysis prompts that want more than the RSS summary.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContent means the page parsed but no usable article text was found.
var ErrNoContent = errors.New("no article content found")

const (
	requestTimeout = 15 * time.Second
	userAgent      = "newswatch/1.0"
	minParagraph   = 20
)

// Extractor fetches article pages and pulls out their body text.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an extractor with a sane request timeout.
func NewExtractor() *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// selectorsFor returns CSS selectors tried in order for a publisher's
// article body, most specific first.
func selectorsFor(url string) []string {
	switch {
	case strings.Contains(url, "economictimes"):
		return []string{".artText p", "div.artText", "article p"}
	case strings.Contains(url, "moneycontrol"):
		return []string{".content_wrapper p", "#contentdata p", "article p"}
	case strings.Contains(url, "thehindu"):
		return []string{".articlebodycontent p", "div[itemprop='articleBody'] p", "article p"}
	case strings.Contains(url, "livemint"):
		return []string{".mainArea p", ".contentSec p", "article p"}
	case strings.Contains(url, "business-standard"):
		return []string{".story-content p", ".p-content p", "article p"}
	default:
		return []string{
			"article p",
			".article p",
			".content p",
			".post-content p",
			".entry-content p",
			"main p",
			"p",
		}
	}
}

// Extract fetches the page at url and returns its article text, paragraphs
// joined by blank lines.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article %s returned status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse article %s: %w", url, err)
	}

	content := extract(doc, selectorsFor(url))
	if content == "" {
		return "", fmt.Errorf("article %s: %w", url, ErrNoContent)
	}
	return content, nil
}

func extract(doc *goquery.Document, selectors []string) string {
	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minParagraph {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
