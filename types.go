package newswatch

import "time"

// EngineConfig configures the newswatch engine.
type EngineConfig struct {
	DBPath          string
	APIKeys         []string // Gemini keys, tried in order
	Model           string
	FeedURLs        []string // empty means the built-in registry
	MaxPerFeed      int
	FeedConcurrency int
	Workers         int // analysis worker pool size
	MaxRetries      int // attempts per retryable analysis task
}

// Keyword is a search term that news is tracked against.
type Keyword struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Source identifies the publication an article came from.
type Source struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Homepage string `json:"homepage,omitempty"`
}

// News is one tracked article with its analysis state.
type News struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	Summary              string    `json:"summary"`
	Content              string    `json:"content,omitempty"`
	PublishedAt          time.Time `json:"published_at"`
	Link                 string    `json:"link"`
	KeywordID            int64     `json:"keyword_id"`
	Source               *Source   `json:"source,omitempty"`
	SentimentScore       float64   `json:"sentiment_score"`
	SentimentConfidence  float64   `json:"sentiment_confidence"`
	SentimentExplanation string    `json:"sentiment_explanation,omitempty"`
	MentionedTickers     []string  `json:"mentioned_tickers"`
	Analysed             bool      `json:"analysed"`
}

// SearchResult summarizes one keyword's search outcome.
type SearchResult struct {
	Keyword   string `json:"keyword"`
	KeywordID int64  `json:"keyword_id"`
	Matches   int    `json:"matches"`
	NewNews   int    `json:"new_news"`
}

// Progress reports how far analysis has gotten for a keyword.
type Progress struct {
	TotalNews    int `json:"total_news"`
	AnalysedNews int `json:"analysed_news"`
}

// Stock is one entry of the tracked stock universe.
type Stock struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}
