package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"meal-planner/internal/storage"
)

// DocumentStore implements storage.Store on top of SQLite. Documents live in
// a key/value table and logs in an append-only entries table.
type DocumentStore struct {
	db *sql.DB
}

var _ storage.Store = (*DocumentStore)(nil)

// NewDocumentStore wraps an open database whose migrations have been applied.
func NewDocumentStore(d *sql.DB) *DocumentStore {
	return &DocumentStore{db: d}
}

func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	return []byte(data), nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put document %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM documents WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan document key: %w", err)
		}
		// LIKE is case-insensitive for ASCII in SQLite.
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, rows.Err()
}

func (s *DocumentStore) Append(ctx context.Context, key string, entry []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_entries (key, data, created_at) VALUES (?, ?, ?)`,
		key, string(entry), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Entries(ctx context.Context, key string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM log_entries WHERE key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", key, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		out = append(out, []byte(data))
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
