package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airadar/citation-bot/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			llm TEXT NOT NULL,
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			brands_found TEXT NOT NULL,
			failure_kind TEXT,
			failure_reason TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_keyword ON scans(keyword)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveScans stores a batch of results in one transaction.
func (s *SQLiteStore) SaveScans(ctx context.Context, keyword string, results []models.ScanResult, at time.Time) ([]models.ScanRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scans (id, keyword, llm, prompt, response, brands_found, failure_kind, failure_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	records := make([]models.ScanRecord, 0, len(results))
	for _, r := range results {
		found, err := json.Marshal(r.BrandsFound)
		if err != nil {
			return nil, fmt.Errorf("failed to encode brands: %w", err)
		}

		var kind, reason sql.NullString
		if r.Failure != nil {
			kind = sql.NullString{String: string(r.Failure.Kind), Valid: true}
			reason = sql.NullString{String: r.Failure.Reason, Valid: true}
		}

		rec := models.ScanRecord{
			ID:         uuid.New().String(),
			Keyword:    strings.TrimSpace(keyword),
			CreatedAt:  at.UTC(),
			ScanResult: r,
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Keyword, string(r.Provider), r.Prompt, r.Response,
			string(found), kind, reason, rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListScans returns stored records newest first.
func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]models.ScanRecord, error) {
	query := `SELECT id, keyword, llm, prompt, response, brands_found, failure_kind, failure_reason, created_at FROM scans`

	var where []string
	var args []interface{}
	if filter.Keyword != "" {
		where = append(where, "keyword = ?")
		args = append(args, strings.TrimSpace(filter.Keyword))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		var rec models.ScanRecord
		var provider, found string
		var kind, reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Keyword, &provider, &rec.Prompt, &rec.Response,
			&found, &kind, &reason, &rec.CreatedAt); err != nil {
			return nil, err
		}

		rec.Provider = models.Provider(provider)
		if err := json.Unmarshal([]byte(found), &rec.BrandsFound); err != nil {
			return nil, fmt.Errorf("failed to decode brands of scan %s: %w", rec.ID, err)
		}
		if rec.BrandsFound == nil {
			rec.BrandsFound = []string{}
		}
		if kind.Valid {
			rec.Failure = &models.Failure{Kind: models.FailureKind(kind.String), Reason: reason.String}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountScans returns the number of stored records.
func (s *SQLiteStore) CountScans(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&n)
	return n, err
}
