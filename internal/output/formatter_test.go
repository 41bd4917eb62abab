package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rsharma/newswatch/internal/storage"
)

func TestOutputSearchResults_JSON(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatJSON, &out, &errBuf)

	results := []SearchResult{
		{Keyword: "RELIANCE", KeywordID: 1, Matches: 7, NewNews: 4},
	}
	if err := f.OutputSearchResults(results); err != nil {
		t.Fatalf("OutputSearchResults failed: %v", err)
	}

	var decoded []SearchResult
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Matches != 7 {
		t.Errorf("decoded = %+v, want 1 result with 7 matches", decoded)
	}
}

func TestOutputSearchResults_Text(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatText, &out, &errBuf)

	results := []SearchResult{{Keyword: "TCS", KeywordID: 2, Matches: 3, NewNews: 1}}
	if err := f.OutputSearchResults(results); err != nil {
		t.Fatalf("OutputSearchResults failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "keyword=TCS") || !strings.Contains(got, "new=1") {
		t.Errorf("unexpected text output: %s", got)
	}
}

func TestOutputNewsList_Human(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatHuman, &out, &errBuf)

	news := []storage.News{
		{
			ID:             1,
			Title:          "Reliance expands retail arm",
			Link:           "https://example.com/ril",
			PublishedAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			SentimentScore: 0.6, SentimentConfidence: 0.8,
			SentimentExplanation: "Expansion supports growth.",
		},
		{
			ID:    2,
			Title: "Reliance AGM scheduled",
			Link:  "https://example.com/ril-agm",
		},
	}
	if err := f.OutputNewsList(news); err != nil {
		t.Fatalf("OutputNewsList failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Sentiment: 0.600") {
		t.Errorf("missing analysed sentiment in output: %s", got)
	}
	if !strings.Contains(got, "Sentiment: pending") {
		t.Errorf("missing pending marker in output: %s", got)
	}
}

func TestOutputNewsList_HumanEmpty(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatHuman, &out, &errBuf)

	if err := f.OutputNewsList(nil); err != nil {
		t.Fatalf("OutputNewsList failed: %v", err)
	}
	if !strings.Contains(out.String(), "No news found") {
		t.Errorf("unexpected empty output: %s", out.String())
	}
}

func TestOutputProgress(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatJSON, &out, &errBuf)

	p := &storage.Progress{TotalNews: 10, AnalysedNews: 4}
	if err := f.OutputProgress("INFY", p); err != nil {
		t.Fatalf("OutputProgress failed: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if decoded["total_news"] != 10 || decoded["analysed_news"] != 4 {
		t.Errorf("decoded = %v, want total_news=10 analysed_news=4", decoded)
	}
}

func TestOutputError(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(FormatHuman, &out, &errBuf)

	f.OutputError(errors.New("boom"))
	if !strings.Contains(errBuf.String(), "boom") {
		t.Errorf("error not written to error stream: %q", errBuf.String())
	}
	if out.Len() != 0 {
		t.Errorf("error leaked to stdout: %q", out.String())
	}
}

func TestUnknownFormat(t *testing.T) {
	var out, errBuf bytes.Buffer
	f := NewFormatterWithWriters(Format("xml"), &out, &errBuf)

	if err := f.OutputSearchResults(nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
