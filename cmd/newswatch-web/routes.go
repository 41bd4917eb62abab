package main

import (
	"embed"
	"net/http"

	newswatch "github.com/rsharma/newswatch"
)

//go:embed templates
var embedded embed.FS

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(engine *newswatch.Engine) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{engine: engine}

	// Full-page routes
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /search", h.handleSearch)
	mux.HandleFunc("GET /keywords/{keywordID}", h.handleKeyword)
	mux.HandleFunc("GET /news/{newsID}", h.handleNewsDetail)

	// JSON polled by the keyword page while analysis runs
	mux.HandleFunc("GET /keywords/{keywordID}/status", h.handleKeywordStatus)

	// Actions
	mux.HandleFunc("POST /news/{newsID}/analyse", h.handleReanalyze)
	mux.HandleFunc("POST /news/{newsID}/content", h.handleFetchContent)
	mux.HandleFunc("DELETE /news/{newsID}/content", h.handleRemoveContent)

	return mux
}
