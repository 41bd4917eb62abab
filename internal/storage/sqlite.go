package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath and
// initializes the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Keywords ---

// GetOrCreateKeyword returns the keyword with the given name, creating it on
// first sight. Names are matched exactly; they are not required to be unique,
// and lookup returns the oldest row when duplicates exist.
func (s *SQLiteStore) GetOrCreateKeyword(name string) (*Keyword, error) {
	var k Keyword
	err := s.db.QueryRow(
		"SELECT id, name, created_at FROM keywords WHERE name = ? ORDER BY id LIMIT 1",
		name,
	).Scan(&k.ID, &k.Name, &k.CreatedAt)
	if err == nil {
		return &k, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to look up keyword %q: %w", name, err)
	}

	result, err := s.db.Exec("INSERT INTO keywords (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword %q: %w", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword id: %w", err)
	}
	return s.GetKeyword(id)
}

// GetKeyword returns a keyword by ID.
func (s *SQLiteStore) GetKeyword(id int64) (*Keyword, error) {
	var k Keyword
	err := s.db.QueryRow(
		"SELECT id, name, created_at FROM keywords WHERE id = ?", id,
	).Scan(&k.ID, &k.Name, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("keyword %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword %d: %w", id, err)
	}
	return &k, nil
}

// ListKeywords returns all keywords, newest first.
func (s *SQLiteStore) ListKeywords() ([]Keyword, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM keywords ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Name, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// --- Sources ---

// GetOrCreateSource returns the source with the given short code, creating it
// with the supplied display name and homepage when absent. An existing row is
// returned unchanged.
func (s *SQLiteStore) GetOrCreateSource(code, name, homepage string) (*Source, error) {
	_, err := s.db.Exec(
		"INSERT INTO sources (code, name, homepage) VALUES (?, ?, ?) ON CONFLICT(code) DO NOTHING",
		code, name, homepage,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source %q: %w", code, err)
	}
	return s.GetSourceByCode(code)
}

// GetSource returns a source by ID.
func (s *SQLiteStore) GetSource(id int64) (*Source, error) {
	var src Source
	err := s.db.QueryRow(
		"SELECT id, code, name, homepage FROM sources WHERE id = ?", id,
	).Scan(&src.ID, &src.Code, &src.Name, &src.Homepage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", id, err)
	}
	return &src, nil
}

// GetSourceByCode returns a source by its short code.
func (s *SQLiteStore) GetSourceByCode(code string) (*Source, error) {
	var src Source
	err := s.db.QueryRow(
		"SELECT id, code, name, homepage FROM sources WHERE code = ?", code,
	).Scan(&src.ID, &src.Code, &src.Name, &src.Homepage)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %q: %w", code, err)
	}
	return &src, nil
}

// --- News ---

const newsColumns = `id, title, summary, content, published_at, link, keyword_id, source_id,
	sentiment_score, sentiment_confidence, sentiment_explanation,
	mentioned_tickers, raw_analysis, created_at, updated_at`

func (s *SQLiteStore) scanNews(row interface{ Scan(...any) error }) (*News, error) {
	var n News
	var content, explanation sql.NullString
	var publishedAt sql.NullTime
	var sourceID sql.NullInt64
	var tickers, raw string
	err := row.Scan(&n.ID, &n.Title, &n.Summary, &content, &publishedAt, &n.Link,
		&n.KeywordID, &sourceID, &n.SentimentScore, &n.SentimentConfidence,
		&explanation, &tickers, &raw, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Content = content.String
	n.SentimentExplanation = explanation.String
	if publishedAt.Valid {
		n.PublishedAt = publishedAt.Time
	}
	if sourceID.Valid {
		id := sourceID.Int64
		n.SourceID = &id
	}
	if err := json.Unmarshal([]byte(tickers), &n.MentionedTickers); err != nil {
		n.MentionedTickers = nil
	}
	n.RawAnalysis = raw
	return &n, nil
}

// GetOrCreateNews inserts a news record keyed by its link, or returns the
// existing record untouched when the link is already known. The bool result
// reports whether a new row was created. The UNIQUE constraint on link is the
// only dedup mechanism; concurrent callers racing on the same link both get
// the same row back.
//
// LastInsertId is unreliable with ON CONFLICT DO NOTHING (SQLite reports a
// stale rowid), so creation is detected via RowsAffected and the row is
// re-read by link in both cases.
func (s *SQLiteStore) GetOrCreateNews(n *News) (*News, bool, error) {
	tickers, err := json.Marshal(tickersOrEmpty(n.MentionedTickers))
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode tickers: %w", err)
	}

	var publishedAt any
	if !n.PublishedAt.IsZero() {
		publishedAt = n.PublishedAt
	}
	var sourceID any
	if n.SourceID != nil {
		sourceID = *n.SourceID
	}

	result, err := s.db.Exec(
		`INSERT INTO news (title, summary, published_at, link, keyword_id, source_id, mentioned_tickers)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(link) DO NOTHING`,
		n.Title, n.Summary, publishedAt, n.Link, n.KeywordID, sourceID, string(tickers),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert news %q: %w", n.Link, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check insert result: %w", err)
	}

	stored, err := s.GetNewsByLink(n.Link)
	if err != nil {
		return nil, false, err
	}
	return stored, affected > 0, nil
}

// GetNews returns a single news record by ID.
func (s *SQLiteStore) GetNews(id int64) (*News, error) {
	row := s.db.QueryRow("SELECT "+newsColumns+" FROM news WHERE id = ?", id)
	n, err := s.scanNews(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("news %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news %d: %w", id, err)
	}
	return n, nil
}

// GetNewsByLink returns a single news record by its canonical link.
func (s *SQLiteStore) GetNewsByLink(link string) (*News, error) {
	row := s.db.QueryRow("SELECT "+newsColumns+" FROM news WHERE link = ?", link)
	n, err := s.scanNews(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("news %q: %w", link, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news by link: %w", err)
	}
	return n, nil
}

// NewsForKeyword returns news for a keyword, newest publish date first.
func (s *SQLiteStore) NewsForKeyword(keywordID int64, limit, offset int) ([]News, error) {
	rows, err := s.db.Query(
		"SELECT "+newsColumns+" FROM news WHERE keyword_id = ? ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?",
		keywordID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get news for keyword %d: %w", keywordID, err)
	}
	defer rows.Close()

	var news []News
	for rows.Next() {
		n, err := s.scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		news = append(news, *n)
	}
	return news, rows.Err()
}

// UpdateSentiment persists a full structured analysis result against a news
// row in a single statement. Re-running against the same row overwrites the
// previous result, which makes duplicate task delivery safe.
func (s *SQLiteStore) UpdateSentiment(id int64, sent Sentiment) error {
	tickers, err := json.Marshal(tickersOrEmpty(sent.Tickers))
	if err != nil {
		return fmt.Errorf("failed to encode tickers: %w", err)
	}
	raw := sent.Raw
	if raw == "" {
		raw = "{}"
	}
	result, err := s.db.Exec(
		`UPDATE news SET sentiment_score = ?, sentiment_confidence = ?,
		   sentiment_explanation = ?, mentioned_tickers = ?, raw_analysis = ?,
		   updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		sent.Score, sent.Confidence, sent.Explanation, string(tickers), raw, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update sentiment for news %d: %w", id, err)
	}
	return requireRow(result, id)
}

// UpdateSentimentScore persists just the score, used by the bare-float
// response fallback where no other fields are available.
func (s *SQLiteStore) UpdateSentimentScore(id int64, score float64) error {
	result, err := s.db.Exec(
		"UPDATE news SET sentiment_score = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		score, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update sentiment score for news %d: %w", id, err)
	}
	return requireRow(result, id)
}

// SetContent stores the extracted full article text.
func (s *SQLiteStore) SetContent(id int64, content string) error {
	result, err := s.db.Exec(
		"UPDATE news SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		content, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set content for news %d: %w", id, err)
	}
	return requireRow(result, id)
}

// ClearContent removes the extracted full article text.
func (s *SQLiteStore) ClearContent(id int64) error {
	result, err := s.db.Exec(
		"UPDATE news SET content = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear content for news %d: %w", id, err)
	}
	return requireRow(result, id)
}

// KeywordProgress counts a keyword's news records and how many of them carry
// a non-default sentiment score. Consumed by the polling status endpoint.
func (s *SQLiteStore) KeywordProgress(keywordID int64) (*Progress, error) {
	var p Progress
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN sentiment_score != 0 THEN 1 ELSE 0 END), 0)
		 FROM news WHERE keyword_id = ?`,
		keywordID,
	).Scan(&p.TotalNews, &p.AnalysedNews)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for keyword %d: %w", keywordID, err)
	}
	return &p, nil
}

// --- Stocks ---

// GetOrCreateSector returns the sector with the given name, creating it when
// absent.
func (s *SQLiteStore) GetOrCreateSector(name, searchTerms string) (*Sector, error) {
	_, err := s.db.Exec(
		"INSERT INTO sectors (name, search_terms) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, searchTerms,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sector %q: %w", name, err)
	}
	var sec Sector
	err = s.db.QueryRow(
		"SELECT id, name, search_terms FROM sectors WHERE name = ?", name,
	).Scan(&sec.ID, &sec.Name, &sec.SearchTerms)
	if err != nil {
		return nil, fmt.Errorf("failed to get sector %q: %w", name, err)
	}
	return &sec, nil
}

// AddStock inserts a stock, updating the display name in place when the
// symbol already exists.
func (s *SQLiteStore) AddStock(symbol, name string, sectorID *int64) (int64, error) {
	var sector any
	if sectorID != nil {
		sector = *sectorID
	}
	_, err := s.db.Exec(
		`INSERT INTO stocks (symbol, name, sector_id) VALUES (?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET name = excluded.name, sector_id = excluded.sector_id`,
		symbol, name, sector,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add stock %q: %w", symbol, err)
	}
	var id int64
	if err := s.db.QueryRow("SELECT id FROM stocks WHERE symbol = ?", symbol).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get stock id for %q: %w", symbol, err)
	}
	return id, nil
}

// ListStocks returns all stocks ordered by symbol.
func (s *SQLiteStore) ListStocks() ([]Stock, error) {
	rows, err := s.db.Query(stockColumns + " ORDER BY stocks.symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

// GetStocksByIDs returns the stocks matching the given IDs. Unknown IDs are
// silently omitted.
func (s *SQLiteStore) GetStocksByIDs(ids []int64) ([]Stock, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.Query(
		stockColumns+" WHERE stocks.id IN ("+placeholders+") ORDER BY stocks.symbol",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stocks by ids: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

const stockColumns = `SELECT stocks.id, stocks.symbol, stocks.name, stocks.sector_id,
	COALESCE(sectors.name, '')
	FROM stocks LEFT JOIN sectors ON sectors.id = stocks.sector_id`

func scanStocks(rows *sql.Rows) ([]Stock, error) {
	var stocks []Stock
	for rows.Next() {
		var st Stock
		var sectorID sql.NullInt64
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Name, &sectorID, &st.SectorName); err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		if sectorID.Valid {
			id := sectorID.Int64
			st.SectorID = &id
		}
		stocks = append(stocks, st)
	}
	return stocks, rows.Err()
}

// requireRow converts a zero-row UPDATE into ErrNotFound.
func requireRow(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("news %d: %w", id, ErrNotFound)
	}
	return nil
}

func tickersOrEmpty(tickers []string) []string {
	if tickers == nil {
		return []string{}
	}
	return tickers
}

var _ Store = (*SQLiteStore)(nil)
