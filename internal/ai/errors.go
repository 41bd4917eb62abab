package ai

import (
	"errors"
	"strings"
)

var (
	// ErrNoAPIKeys means the analyzer was started without any API keys.
	ErrNoAPIKeys = errors.New("no API keys available")

	// ErrNewsNotFound means the news record to analyse does not exist.
	// Tasks carrying it are not worth retrying.
	ErrNewsNotFound = errors.New("news not found")

	// ErrRateLimited means every API key hit its quota.
	ErrRateLimited = errors.New("all API keys rate limited")

	// ErrAuthFailed means the API rejected a key's credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrMalformedResponse means the model reply was neither the expected
	// JSON object nor a bare score.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrScoreOutOfRange means the model returned a sentiment or confidence
	// value outside its valid range.
	ErrScoreOutOfRange = errors.New("score out of range")
)

// classifyAPIError buckets a raw API error by sniffing its message, the only
// signal available across SDK error types. Rate limits surface as 429 or
// quota text; auth failures as 401 or 403.
func classifyAPIError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "quota") {
		return ErrRateLimited
	}
	if strings.Contains(msg, "401") || strings.Contains(msg, "403") {
		return ErrAuthFailed
	}
	return err
}

// Retryable reports whether an analysis failure is transient. Only key
// exhaustion caused by rate limits or auth failures is worth retrying; a
// malformed response or missing record will fail the same way every time.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrAuthFailed)
}
