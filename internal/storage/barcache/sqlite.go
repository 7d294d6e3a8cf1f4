package barcache

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

	"github.com/newthinker/chartdesk/internal/core"
)

// SQLiteCache persists bars in a SQLite database so restarts start warm.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the database at path and runs migrations.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bar_windows (
			cache_key  TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			interval   TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			bars       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bar_windows_fetched ON bar_windows(fetched_at)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a cached entry.
func (c *SQLiteCache) Get(ctx context.Context, key Key) (Entry, bool, error) {
	var (
		fetchedAt int64
		payload   string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at, bars FROM bar_windows WHERE cache_key = ?`, key.String(),
	).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query bars: %w", err)
	}

	var bars core.Series
	if err := json.Unmarshal([]byte(payload), &bars); err != nil {
		return Entry{}, false, fmt.Errorf("decode bars: %w", err)
	}
	return Entry{Bars: bars, FetchedAt: time.UnixMilli(fetchedAt)}, true, nil
}

// Put stores or replaces an entry.
func (c *SQLiteCache) Put(ctx context.Context, key Key, entry Entry) error {
	payload, err := json.Marshal(entry.Bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO bar_windows (cache_key, source, symbol, interval, fetched_at, bars)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET fetched_at = excluded.fetched_at, bars = excluded.bars`,
		key.String(), key.Source, key.Symbol, key.Interval, entry.FetchedAt.UnixMilli(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert bars: %w", err)
	}
	return nil
}

// Purge deletes entries fetched before cutoff.
func (c *SQLiteCache) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM bar_windows WHERE fetched_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge bars: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
