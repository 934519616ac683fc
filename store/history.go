package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RyanBlaney/sonido-mix/mixfit/model"
)

// ReportSummary is one row of the report history listing.
type ReportSummary struct {
	ID          string    `json:"id"`
	MixFile     string    `json:"mix_file"`
	CreatedAt   time.Time `json:"created_at"`
	Stems       int       `json:"stems"`
	Suggestions int       `json:"suggestions"`
}

// History keeps finished reports in SQLite.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the report history database at path. The
// path ":memory:" gives a private in-memory database.
func OpenHistory(path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" consistent and serialises writers
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		mix_file TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		stems INTEGER NOT NULL,
		suggestions INTEGER NOT NULL,
		body TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &History{db: db}, nil
}

// Save stores a report. Reports need an ID; saving the same ID again replaces it.
func (h *History) Save(ctx context.Context, report *model.Report) error {
	if report.ID == "" {
		return errors.New("store: report has no id")
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (id, mix_file, created_at, stems, suggestions, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.SourceFileName, report.CreatedAt.UnixNano(),
		len(report.Stems), report.SuggestionCount(), string(body))
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	return nil
}

// Get loads a report by ID, or ErrNotFound.
func (h *History) Get(ctx context.Context, id string) (*model.Report, error) {
	var body string
	err := h.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

// List returns up to limit summaries, newest first. A limit <= 0 means no limit.
func (h *History) List(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, mix_file, created_at, stems, suggestions
		FROM reports ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	summaries := []ReportSummary{}
	for rows.Next() {
		var (
			s       ReportSummary
			created int64
		)
		if err := rows.Scan(&s.ID, &s.MixFile, &created, &s.Stems, &s.Suggestions); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		s.CreatedAt = time.Unix(0, created).UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}
