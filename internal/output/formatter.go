// Package output renders command results in json, text, or human form.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rsharma/newswatch/internal/storage"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// SearchResult represents the outcome of one keyword search
type SearchResult struct {
	Keyword   string `json:"keyword"`
	KeywordID int64  `json:"keyword_id"`
	Matches   int    `json:"matches"`
	NewNews   int    `json:"new_news"`
}

// OutputSearchResults outputs per-keyword search results in the configured format
func (f *Formatter) OutputSearchResults(results []SearchResult) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(results)
	case FormatText:
		for _, r := range results {
			fmt.Fprintf(f.out, "keyword=%s\tkeyword_id=%d\tmatches=%d\tnew=%d\n",
				r.Keyword, r.KeywordID, r.Matches, r.NewNews)
		}
		return nil
	case FormatHuman:
		if len(results) == 0 {
			fmt.Fprintln(f.out, "No keywords searched")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(f.out, "%s: %d matching articles (%d new)\n", r.Keyword, r.Matches, r.NewNews)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputNewsList outputs a list of news records
func (f *Formatter) OutputNewsList(news []storage.News) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(news)
	case FormatText:
		for _, n := range news {
			fmt.Fprintf(f.out, "id=%d\ttitle=%s\tlink=%s\tscore=%.3f\tpublished=%s\n",
				n.ID, n.Title, n.Link, n.SentimentScore, formatTime(n.PublishedAt))
		}
		return nil
	case FormatHuman:
		if len(news) == 0 {
			fmt.Fprintln(f.out, "No news found")
			return nil
		}
		fmt.Fprintf(f.out, "News (%d):\n\n", len(news))
		for _, n := range news {
			fmt.Fprintf(f.out, "ID: %d\n", n.ID)
			fmt.Fprintf(f.out, "Title: %s\n", n.Title)
			fmt.Fprintf(f.out, "Link: %s\n", n.Link)
			if !n.PublishedAt.IsZero() {
				fmt.Fprintf(f.out, "Published: %s\n", n.PublishedAt.Format("2006-01-02 15:04"))
			}
			if n.Analysed() {
				fmt.Fprintf(f.out, "Sentiment: %.3f (confidence %.2f)\n",
					n.SentimentScore, n.SentimentConfidence)
				if n.SentimentExplanation != "" {
					fmt.Fprintf(f.out, "Why: %s\n", n.SentimentExplanation)
				}
			} else {
				fmt.Fprintln(f.out, "Sentiment: pending")
			}
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputProgress outputs analysis progress for a keyword
func (f *Formatter) OutputProgress(keyword string, p *storage.Progress) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(p)
	case FormatText:
		fmt.Fprintf(f.out, "keyword=%s\ttotal=%d\tanalysed=%d\n", keyword, p.TotalNews, p.AnalysedNews)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "%s: %d of %d articles analysed\n", keyword, p.AnalysedNews, p.TotalNews)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputStockList outputs the stock universe
func (f *Formatter) OutputStockList(stocks []storage.Stock) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(stocks)
	case FormatText:
		for _, s := range stocks {
			fmt.Fprintf(f.out, "id=%d\tsymbol=%s\tname=%s\n", s.ID, s.Symbol, s.Name)
		}
		return nil
	case FormatHuman:
		if len(stocks) == 0 {
			fmt.Fprintln(f.out, "No stocks imported")
			return nil
		}
		for _, s := range stocks {
			if s.SectorName != "" {
				fmt.Fprintf(f.out, "%-12s %s (%s)\n", s.Symbol, s.Name, s.SectorName)
			} else {
				fmt.Fprintf(f.out, "%-12s %s\n", s.Symbol, s.Name)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputError writes an error in the configured format to the error stream
func (f *Formatter) OutputError(err error) {
	if f.format == FormatJSON {
		json.NewEncoder(f.err).Encode(map[string]string{"error": err.Error()})
		return
	}
	fmt.Fprintf(f.err, "Error: %v\n", err)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
