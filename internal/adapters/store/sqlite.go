package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS weights (
	position INTEGER PRIMARY KEY,
	weight   INTEGER NOT NULL CHECK (weight >= 1)
)`

// SQLiteStore keeps one row per position in a SQLite database.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the weights table exists. An empty table loads as defaults.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create weights table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Load reads the weights ordered by position.
func (s *SQLiteStore) Load(ctx context.Context, size int) LoadResult {
	if err := ctx.Err(); err != nil {
		return fallback(size, fmt.Errorf("%w: %w", ErrLoad, err))
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT position, weight FROM weights ORDER BY position`)
	if err != nil {
		return fallback(size, fmt.Errorf("%w: query: %w", ErrLoad, err))
	}
	defer func() { _ = rows.Close() }()

	var weights []int
	for rows.Next() {
		var position, weight int
		if err := rows.Scan(&position, &weight); err != nil {
			return fallback(size, fmt.Errorf("%w: scan: %w", ErrMalformed, err))
		}
		if position != len(weights) {
			return fallback(size, fmt.Errorf("%w: position %d out of sequence", ErrMalformed, position))
		}
		weights = append(weights, weight)
	}
	if err := rows.Err(); err != nil {
		return fallback(size, fmt.Errorf("%w: rows: %w", ErrLoad, err))
	}

	if len(weights) == 0 {
		return Defaults(size)
	}
	if err := validate(weights, size); err != nil {
		return fallback(size, err)
	}
	return LoadResult{Weights: weights, Source: SourceStore}
}

// Save replaces every row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, weights []int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrSave, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weights`); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrSave, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO weights (position, weight) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %w", ErrSave, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, w := range weights {
		if _, err := stmt.ExecContext(ctx, i, w); err != nil {
			return fmt.Errorf("%w: insert position %d: %w", ErrSave, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrSave, err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
