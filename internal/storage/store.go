package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Keyword is a search term or stock symbol used to query feeds.
type Keyword struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Source is a classified news publisher.
type Source struct {
	ID       int64
	Code     string
	Name     string
	Homepage string
}

// News is a persisted article. Link is the canonical URL and the global
// dedup key; everything sentiment-related defaults to the zero value until
// the analyzer has run.
type News struct {
	ID                   int64
	Title                string
	Summary              string
	Content              string // optional full text, empty until extracted
	PublishedAt          time.Time
	Link                 string
	KeywordID            int64
	SourceID             *int64
	SentimentScore       float64
	SentimentConfidence  float64
	SentimentExplanation string
	MentionedTickers     []string
	RawAnalysis          string // raw JSON payload from the last analysis
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Analysed reports whether the record carries a non-default sentiment score.
func (n *News) Analysed() bool {
	return n.SentimentScore != 0
}

// Sentiment is the full result of a structured analysis, persisted in one
// update against a single news row.
type Sentiment struct {
	Score       float64
	Confidence  float64
	Explanation string
	Tickers     []string
	Raw         string
}

// Sector is an industry classification for stocks.
type Sector struct {
	ID          int64
	Name        string
	SearchTerms string
}

// Stock is an NSE-listed company.
type Stock struct {
	ID         int64
	Symbol     string
	Name       string
	SectorID   *int64
	SectorName string
}

// Progress reports how many news records for a keyword have been analysed.
type Progress struct {
	TotalNews    int `json:"total_news"`
	AnalysedNews int `json:"analysed_news"`
}

// Store defines the storage interface for newswatch's data layer.
type Store interface {
	Close() error

	// Keywords
	GetOrCreateKeyword(name string) (*Keyword, error)
	GetKeyword(id int64) (*Keyword, error)
	ListKeywords() ([]Keyword, error)

	// Sources
	GetOrCreateSource(code, name, homepage string) (*Source, error)
	GetSource(id int64) (*Source, error)
	GetSourceByCode(code string) (*Source, error)

	// News
	GetOrCreateNews(n *News) (*News, bool, error)
	GetNews(id int64) (*News, error)
	GetNewsByLink(link string) (*News, error)
	NewsForKeyword(keywordID int64, limit, offset int) ([]News, error)
	UpdateSentiment(id int64, s Sentiment) error
	UpdateSentimentScore(id int64, score float64) error
	SetContent(id int64, content string) error
	ClearContent(id int64) error
	KeywordProgress(keywordID int64) (*Progress, error)

	// Stocks
	GetOrCreateSector(name, searchTerms string) (*Sector, error)
	AddStock(symbol, name string, sectorID *int64) (int64, error)
	ListStocks() ([]Stock, error)
	GetStocksByIDs(ids []int64) ([]Stock, error)
}
