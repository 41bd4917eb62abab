package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	newswatch "github.com/rsharma/newswatch"
	"github.com/microcosm-cc/bluemonday"
)

const pageSize = 25

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *newswatch.Engine
	pages  map[string]*template.Template // per-page template sets
	policy *bluemonday.Policy
}

// init parses templates and creates the sanitizer policy on first use.
// Each page gets its own template tree so shared block names don't collide.
func (h *handlers) init() {
	if h.pages != nil {
		return
	}

	funcMap := template.FuncMap{
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // already sanitized by bluemonday
		},
	}

	tmplFS, _ := fs.Sub(embedded, "templates")

	shared := []string{"base.html", "error.html"}
	pages := []string{"index.html", "keyword.html", "news.html"}

	h.pages = make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		files := append(append([]string{}, shared...), page)
		t := template.Must(template.New("").Funcs(funcMap).ParseFS(tmplFS, files...))
		h.pages[page] = t
	}

	h.policy = bluemonday.UGCPolicy()
}

func (h *handlers) render(w http.ResponseWriter, page string, data any) {
	h.init()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("newswatch-web: render %s: %v", page, err)
	}
}

func (h *handlers) renderError(w http.ResponseWriter, status int, msg string) {
	h.init()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := errorData{Status: status, Message: msg}
	if err := h.pages["index.html"].ExecuteTemplate(w, "error", data); err != nil {
		log.Printf("newswatch-web: render error page: %v", err)
	}
}

// --- Template data types ---

type errorData struct {
	Status  int
	Message string
}

type indexData struct {
	Keywords []keywordRow
	Stocks   []stockRow
	Error    string
}

type stockRow struct {
	ID     int64
	Symbol string
	Name   string
	Sector string
}

type keywordRow struct {
	ID        int64
	Name      string
	CreatedAt string
}

type keywordData struct {
	ID         int64
	Name       string
	Total      int
	Analysed   int
	Pending    bool
	News       []newsRow
	HasMore    bool
	NextOffset int
}

type newsRow struct {
	ID           int64
	Title        string
	SourceName   string
	PublishedFmt string
	Score        float64
	Analysed     bool
}

type newsDetailData struct {
	ID           int64
	KeywordID    int64
	Title        string
	Link         string
	SourceName   string
	PublishedFmt string
	Summary      template.HTML
	Content      string
	HasContent   bool
	Analysed     bool
	Score        float64
	Confidence   float64
	Explanation  string
	Tickers      []string
}

// --- Handlers ---

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.engine.Keywords()
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to load keywords")
		return
	}
	data := indexData{Error: r.URL.Query().Get("error")}
	for _, k := range keywords {
		data.Keywords = append(data.Keywords, keywordRow{
			ID:        k.ID,
			Name:      k.Name,
			CreatedAt: k.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	if stocks, err := h.engine.ListStocks(); err == nil {
		for _, s := range stocks {
			data.Stocks = append(data.Stocks, stockRow{
				ID: s.ID, Symbol: s.Symbol, Name: s.Name, Sector: s.Sector,
			})
		}
	}
	h.render(w, "index.html", data)
}

func (h *handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	var stockIDs []int64
	for _, part := range strings.Split(r.PostFormValue("stocks"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				h.renderError(w, http.StatusBadRequest, "invalid stock id")
				return
			}
			stockIDs = append(stockIDs, id)
		}
	}
	var keywords []string
	for _, part := range strings.Split(r.PostFormValue("keywords"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			keywords = append(keywords, part)
		}
	}
	if len(keywords) == 0 && len(stockIDs) == 0 {
		h.renderError(w, http.StatusBadRequest, "enter at least one keyword")
		return
	}

	var results []newswatch.SearchResult
	var err error
	if len(stockIDs) > 0 {
		results, err = h.engine.SearchStocks(r.Context(), stockIDs)
	} else {
		results, err = h.engine.Search(r.Context(), keywords)
	}
	if errors.Is(err, newswatch.ErrNotFound) {
		h.renderError(w, http.StatusNotFound, "no such stocks")
		return
	}
	if err != nil {
		log.Printf("newswatch-web: search failed: %v", err)
		http.Redirect(w, r, "/?error="+template.URLQueryEscaper("all feeds are unavailable, try again later"), http.StatusSeeOther)
		return
	}

	// Land on the first keyword's page; the rest are reachable from the index.
	http.Redirect(w, r, fmt.Sprintf("/keywords/%d", results[0].KeywordID), http.StatusSeeOther)
}

func (h *handlers) handleKeyword(w http.ResponseWriter, r *http.Request) {
	keywordID := pathID(r, "keywordID")
	if keywordID < 0 {
		h.renderError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	keyword, err := h.engine.GetKeyword(keywordID)
	if errors.Is(err, newswatch.ErrNotFound) {
		h.renderError(w, http.StatusNotFound, "keyword not found")
		return
	}
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to load keyword")
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	news, err := h.engine.NewsForKeyword(keywordID, pageSize+1, offset)
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to load news")
		return
	}
	progress, err := h.engine.Progress(keywordID)
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	data := keywordData{
		ID:       keyword.ID,
		Name:     keyword.Name,
		Total:    progress.TotalNews,
		Analysed: progress.AnalysedNews,
		Pending:  progress.AnalysedNews < progress.TotalNews,
	}
	if len(news) > pageSize {
		news = news[:pageSize]
		data.HasMore = true
		data.NextOffset = offset + pageSize
	}
	for _, n := range news {
		data.News = append(data.News, newsRow{
			ID:           n.ID,
			Title:        n.Title,
			SourceName:   sourceName(n.Source),
			PublishedFmt: formatTime(n.PublishedAt),
			Score:        n.SentimentScore,
			Analysed:     n.Analysed,
		})
	}
	h.render(w, "keyword.html", data)
}

func (h *handlers) handleKeywordStatus(w http.ResponseWriter, r *http.Request) {
	keywordID := pathID(r, "keywordID")
	if keywordID < 0 {
		http.Error(w, `{"error": "invalid keyword id"}`, http.StatusBadRequest)
		return
	}
	progress, err := h.engine.Progress(keywordID)
	if errors.Is(err, newswatch.ErrNotFound) {
		http.Error(w, `{"error": "keyword not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}

func (h *handlers) handleNewsDetail(w http.ResponseWriter, r *http.Request) {
	newsID := pathID(r, "newsID")
	if newsID < 0 {
		h.renderError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	n, err := h.engine.GetNews(newsID)
	if errors.Is(err, newswatch.ErrNotFound) {
		h.renderError(w, http.StatusNotFound, "news not found")
		return
	}
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "failed to load news")
		return
	}

	h.init()
	data := newsDetailData{
		ID:           n.ID,
		KeywordID:    n.KeywordID,
		Title:        n.Title,
		Link:         n.Link,
		SourceName:   sourceName(n.Source),
		PublishedFmt: formatTime(n.PublishedAt),
		Summary:      template.HTML(h.policy.Sanitize(n.Summary)), //nolint:gosec
		Content:      n.Content,
		HasContent:   n.Content != "",
		Analysed:     n.Analysed,
		Score:        n.SentimentScore,
		Confidence:   n.SentimentConfidence,
		Explanation:  n.SentimentExplanation,
		Tickers:      n.MentionedTickers,
	}
	h.render(w, "news.html", data)
}

func (h *handlers) handleReanalyze(w http.ResponseWriter, r *http.Request) {
	newsID := pathID(r, "newsID")
	if newsID < 0 {
		h.renderError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	if err := h.engine.Reanalyze(newsID); err != nil {
		if errors.Is(err, newswatch.ErrNotFound) {
			h.renderError(w, http.StatusNotFound, "news not found")
			return
		}
		h.renderError(w, http.StatusInternalServerError, "failed to queue analysis")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/news/%d", newsID), http.StatusSeeOther)
}

func (h *handlers) handleFetchContent(w http.ResponseWriter, r *http.Request) {
	newsID := pathID(r, "newsID")
	if newsID < 0 {
		h.renderError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	if _, err := h.engine.FetchContent(r.Context(), newsID); err != nil {
		if errors.Is(err, newswatch.ErrNotFound) {
			h.renderError(w, http.StatusNotFound, "news not found")
			return
		}
		log.Printf("newswatch-web: fetch content for news %d: %v", newsID, err)
		h.renderError(w, http.StatusBadGateway, "could not extract article content")
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/news/%d", newsID), http.StatusSeeOther)
}

func (h *handlers) handleRemoveContent(w http.ResponseWriter, r *http.Request) {
	newsID := pathID(r, "newsID")
	if newsID < 0 {
		http.Error(w, "invalid news id", http.StatusBadRequest)
		return
	}
	if err := h.engine.RemoveContent(newsID); err != nil {
		if errors.Is(err, newswatch.ErrNotFound) {
			http.Error(w, "news not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to remove content", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sourceName(s *newswatch.Source) string {
	if s == nil {
		return "Other Source"
	}
	return s.Name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
