package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// StructuredResult is a fully parsed JSON analysis.
type StructuredResult struct {
	Sentiment      float64
	Confidence     float64
	Explanation    string
	Tickers        []string
	ImpactTimeline string
	Raw            string
}

// ScalarResult is the fallback when the model replies with a bare score
// instead of the requested JSON object.
type ScalarResult struct {
	Score float64
}

// ParsedAnalysis is either a StructuredResult or a ScalarResult.
type ParsedAnalysis interface {
	isParsedAnalysis()
}

func (StructuredResult) isParsedAnalysis() {}
func (ScalarResult) isParsedAnalysis()     {}

// stripCodeFence removes a markdown code block wrapper, with or without a
// language tag, from a model reply.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.Index(text, "\n"); nl != -1 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseResponse interprets a model reply. The happy path is the JSON object
// the prompt asks for; replies wrapped in markdown fences are unwrapped
// first. When the reply is not JSON at all, a bare float is accepted as a
// sentiment score. Sentiment outside [-1, 1] or confidence outside [0, 1]
// is rejected rather than clamped.
func ParseResponse(text string) (ParsedAnalysis, error) {
	cleaned := stripCodeFence(text)

	var payload struct {
		Sentiment      float64         `json:"sentiment"`
		Confidence     float64         `json:"confidence"`
		Explanation    string          `json:"explanation"`
		Tickers        json.RawMessage `json:"tickers"`
		ImpactTimeline string          `json:"impact_timeline"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		score, ferr := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, truncate(text, 100))
		}
		if score < -1 || score > 1 {
			return nil, fmt.Errorf("%w: sentiment %v not in [-1, 1]", ErrScoreOutOfRange, score)
		}
		return ScalarResult{Score: score}, nil
	}

	if payload.Sentiment < -1 || payload.Sentiment > 1 {
		return nil, fmt.Errorf("%w: sentiment %v not in [-1, 1]", ErrScoreOutOfRange, payload.Sentiment)
	}
	if payload.Confidence < 0 || payload.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v not in [0, 1]", ErrScoreOutOfRange, payload.Confidence)
	}

	// Tickers that are not a string list are discarded, not an error.
	var tickers []string
	if len(payload.Tickers) > 0 {
		if err := json.Unmarshal(payload.Tickers, &tickers); err != nil {
			tickers = nil
		}
	}

	return StructuredResult{
		Sentiment:      payload.Sentiment,
		Confidence:     payload.Confidence,
		Explanation:    payload.Explanation,
		Tickers:        tickers,
		ImpactTimeline: payload.ImpactTimeline,
		Raw:            cleaned,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
