// Package cache stores fetched chapters in SQLite so an interrupted or
// repeated crawl does not download them again.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Entry struct {
	URL       string
	Title     string
	Body      string
	FetchedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir cache dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chapters (
		url        TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached chapter for url. ok is false on a miss.
func (s *Store) Get(ctx context.Context, url string) (Entry, bool, error) {
	var (
		e  Entry
		ts int64
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT url, title, body, fetched_at FROM chapters WHERE url = ?", url,
	).Scan(&e.URL, &e.Title, &e.Body, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query cached chapter: %w", err)
	}

	e.FetchedAt = time.Unix(ts, 0).UTC()
	return e, true, nil
}

// Put stores or replaces a chapter.
func (s *Store) Put(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (url, title, body, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET title = excluded.title, body = excluded.body, fetched_at = excluded.fetched_at`,
		e.URL, e.Title, e.Body, e.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store chapter %s: %w", e.URL, err)
	}

	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chapters").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chapters: %w", err)
	}
	return n, nil
}
