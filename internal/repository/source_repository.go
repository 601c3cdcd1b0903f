package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mediahaul/mediahaul/internal/domain"
)

// SQLiteSourceRepository persists tracked sources in a SQLite database.
type SQLiteSourceRepository struct {
	db *sql.DB
}

// NewSQLiteSourceRepository opens (or creates) the source database at path.
func NewSQLiteSourceRepository(path string) (*SQLiteSourceRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			query TEXT NOT NULL UNIQUE,
			quality TEXT,
			added_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sources_kind ON sources(kind);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteSourceRepository{db: db}, nil
}

// Add stores a new tracked source.
func (r *SQLiteSourceRepository) Add(ctx context.Context, src *domain.TrackedSource) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (id, name, kind, query, quality, added_at) VALUES (?, ?, ?, ?, ?, ?)`,
		src.ID.String(), src.Name, string(src.Kind), src.Query, src.Quality,
		src.AddedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicateSource
		}
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// Get retrieves one tracked source by ID.
func (r *SQLiteSourceRepository) Get(ctx context.Context, id domain.SourceID) (*domain.TrackedSource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, query, quality, added_at FROM sources WHERE id = ?`,
		id.String(),
	)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, fmt.Errorf("query source: %w", err)
	}
	return src, nil
}

// List returns all tracked sources, oldest first.
func (r *SQLiteSourceRepository) List(ctx context.Context) ([]*domain.TrackedSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, query, quality, added_at FROM sources ORDER BY added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrackedSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return out, nil
}

// Delete removes a tracked source.
func (r *SQLiteSourceRepository) Delete(ctx context.Context, id domain.SourceID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

// Close closes the database.
func (r *SQLiteSourceRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*domain.TrackedSource, error) {
	var src domain.TrackedSource
	var id, kind, added string
	if err := row.Scan(&id, &src.Name, &kind, &src.Query, &src.Quality, &added); err != nil {
		return nil, err
	}
	src.ID = domain.SourceID(id)
	src.Kind = domain.ListingKind(kind)
	if t, err := time.Parse(time.RFC3339, added); err == nil {
		src.AddedAt = t
	}
	return &src, nil
}
