// Package store persists documents and their puzzle records in SQLite.
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

	"github.com/dgallion1/puzzlegest/internal/segment"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a document or puzzle does not exist.
var ErrNotFound = errors.New("not found")

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id           TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		pages        INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS puzzles (
		document_id   TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		number        INTEGER NOT NULL,
		source        TEXT NOT NULL,
		game_type     TEXT NOT NULL DEFAULT '',
		vulnerability TEXT NOT NULL DEFAULT '',
		opening_lead  TEXT NOT NULL DEFAULT '',
		explanation   TEXT NOT NULL DEFAULT '',
		record_json   TEXT NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (document_id, number, source)
	)`,
	`CREATE INDEX IF NOT EXISTS puzzles_by_doc ON puzzles(document_id, source, number)`,
}

// Document describes an ingested book.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Pages       int       `json:"pages"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDocument inserts a document or refreshes its filename and page count.
func (s *Store) UpsertDocument(ctx context.Context, d Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, content_hash, pages, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET filename = excluded.filename, pages = excluded.pages`,
		d.ID, d.Filename, d.ContentHash, d.Pages, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", d.ID, err)
	}
	return nil
}

// GetDocument returns one document or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, content_hash, pages, created_at FROM documents WHERE id = ?`, id).
		Scan(&d.ID, &d.Filename, &d.ContentHash, &d.Pages, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, content_hash, pages, created_at FROM documents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentHash, &d.Pages, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and all of its puzzles. It returns the
// number of puzzles removed.
func (s *Store) DeleteDocument(ctx context.Context, id string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM puzzles WHERE document_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete puzzles: %w", err)
	}
	puzzles, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(puzzles), nil
}

// SavePuzzles upserts records for a document in one transaction.
func (s *Store) SavePuzzles(ctx context.Context, docID string, records []segment.PuzzleRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO puzzles (document_id, number, source, game_type, vulnerability,
			opening_lead, explanation, record_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, number, source) DO UPDATE SET
			game_type = excluded.game_type,
			vulnerability = excluded.vulnerability,
			opening_lead = excluded.opening_lead,
			explanation = excluded.explanation,
			record_json = excluded.record_json,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal puzzle %d: %w", r.Number, err)
		}
		if _, err := stmt.ExecContext(ctx, docID, r.Number, string(r.Source),
			r.Problem.GameType, r.Problem.Vulnerability, r.Problem.OpeningLead,
			r.Solution.Explanation, string(b), now); err != nil {
			return fmt.Errorf("save puzzle %d: %w", r.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListPuzzles returns a document's records in ascending number order. An
// empty source lists every source.
func (s *Store) ListPuzzles(ctx context.Context, docID string, source segment.Source) ([]segment.PuzzleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_json FROM puzzles
		WHERE document_id = ? AND (? = '' OR source = ?)
		ORDER BY number, source`, docID, string(source), string(source))
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	defer rows.Close()

	records := []segment.PuzzleRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan puzzle: %w", err)
		}
		var r segment.PuzzleRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode puzzle: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetPuzzle returns one record or ErrNotFound. An empty source prefers the
// text record.
func (s *Store) GetPuzzle(ctx context.Context, docID string, number int, source segment.Source) (segment.PuzzleRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT record_json FROM puzzles
		WHERE document_id = ? AND number = ? AND (? = '' OR source = ?)
		ORDER BY source LIMIT 1`, docID, number, string(source), string(source)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return segment.PuzzleRecord{}, ErrNotFound
	}
	if err != nil {
		return segment.PuzzleRecord{}, fmt.Errorf("get puzzle %d: %w", number, err)
	}
	var r segment.PuzzleRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return segment.PuzzleRecord{}, fmt.Errorf("decode puzzle: %w", err)
	}
	return r, nil
}

// MaxNumber returns the highest stored puzzle number for a document and
// source, or 0 when there is none.
func (s *Store) MaxNumber(ctx context.Context, docID string, source segment.Source) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(number) FROM puzzles WHERE document_id = ? AND source = ?`,
		docID, string(source)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max number: %w", err)
	}
	return int(n.Int64), nil
}
