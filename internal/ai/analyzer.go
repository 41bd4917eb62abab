// Package ai analyses news sentiment with the Gemini API, rotating through
// a chain of API keys.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/rsharma/newswatch/internal/storage"
)

// NewsStore is the slice of storage the analysis service needs.
type NewsStore interface {
	GetNews(id int64) (*storage.News, error)
	UpdateSentiment(id int64, s storage.Sentiment) error
	UpdateSentimentScore(id int64, score float64) error
}

// Result reports a completed analysis.
type Result struct {
	NewsID     int64
	Score      float64
	Confidence float64
	Tickers    []string
	// KeyUsed is the 1-based position of the API key that succeeded.
	KeyUsed int
}

// Service runs sentiment analysis over stored news records.
type Service struct {
	store   NewsStore
	apiKeys []string
	model   string

	// newAnalyzer is swapped out by tests.
	newAnalyzer func(ctx context.Context, apiKey, model string) (Analyzer, error)
}

// NewService creates an analysis service. Keys are tried in order; a request
// that fails on one key moves on to the next.
func NewService(store NewsStore, apiKeys []string, model string) *Service {
	return &Service{
		store:   store,
		apiKeys: apiKeys,
		model:   model,
		newAnalyzer: func(ctx context.Context, apiKey, model string) (Analyzer, error) {
			return NewGeminiAnalyzer(ctx, apiKey, model)
		},
	}
}

// AnalyzeNews runs sentiment analysis for a single news record and persists
// the result. Every failure, whether an API error or an unusable reply,
// advances to the next key; no key is retried within one call. When all keys
// are exhausted the last error is returned, wrapped as ErrRateLimited or
// ErrAuthFailed when that was the failure mode, so callers can decide
// whether to retry later.
func (s *Service) AnalyzeNews(ctx context.Context, newsID int64) (*Result, error) {
	news, err := s.store.GetNews(newsID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("news %d: %w", newsID, ErrNewsNotFound)
		}
		return nil, err
	}

	if len(s.apiKeys) == 0 {
		return nil, ErrNoAPIKeys
	}

	prompt := BuildAnalysisPrompt(news.Title, news.Summary, news.Content)

	var lastErr error
	for idx, apiKey := range s.apiKeys {
		result, err := s.analyzeWithKey(ctx, apiKey, prompt)
		if err != nil {
			classified := classifyAPIError(err)
			log.Printf("newswatch: analysis of news %d failed with key #%d: %v", newsID, idx+1, err)
			lastErr = classified
			continue
		}

		return s.persist(newsID, idx+1, result)
	}

	return nil, fmt.Errorf("analysis of news %d failed on all %d keys: %w", newsID, len(s.apiKeys), lastErr)
}

func (s *Service) analyzeWithKey(ctx context.Context, apiKey, prompt string) (ParsedAnalysis, error) {
	analyzer, err := s.newAnalyzer(ctx, apiKey, s.model)
	if err != nil {
		return nil, err
	}
	defer analyzer.Close()

	text, err := analyzer.Analyze(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return ParseResponse(text)
}

func (s *Service) persist(newsID int64, keyUsed int, parsed ParsedAnalysis) (*Result, error) {
	switch r := parsed.(type) {
	case StructuredResult:
		sent := storage.Sentiment{
			Score:       r.Sentiment,
			Confidence:  r.Confidence,
			Explanation: r.Explanation,
			Tickers:     r.Tickers,
			Raw:         r.Raw,
		}
		if err := s.store.UpdateSentiment(newsID, sent); err != nil {
			return nil, err
		}
		log.Printf("newswatch: analysed news %d: sentiment %.3f, confidence %.3f, tickers %v",
			newsID, r.Sentiment, r.Confidence, r.Tickers)
		return &Result{
			NewsID:     newsID,
			Score:      r.Sentiment,
			Confidence: r.Confidence,
			Tickers:    r.Tickers,
			KeyUsed:    keyUsed,
		}, nil
	case ScalarResult:
		if err := s.store.UpdateSentimentScore(newsID, r.Score); err != nil {
			return nil, err
		}
		log.Printf("newswatch: analysed news %d (bare score): sentiment %.3f", newsID, r.Score)
		return &Result{NewsID: newsID, Score: r.Score, KeyUsed: keyUsed}, nil
	default:
		return nil, fmt.Errorf("unexpected analysis result type %T", parsed)
	}
}
