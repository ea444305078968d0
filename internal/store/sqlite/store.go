// Package sqlite archives bar series so previously fetched history survives
// restarts and can serve as a fallback when the quote provider is down.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"chartengine/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed bar archive.
type Store struct {
	db *sql.DB

	// OnCommit, when set, receives the duration of each SaveBars transaction.
	OnCommit func(time.Duration)
}

// Open opens (or creates) the database at path with WAL mode and ensures
// the schema exists. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT    NOT NULL,
			tf     TEXT    NOT NULL,
			time   INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume REAL    NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, tf, time)
		);
	`)
	return err
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// SaveBars upserts a series in a single transaction.
func (s *Store) SaveBars(ctx context.Context, symbol, timeframe string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, tf, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, timeframe, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar %d: %w", b.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if s.OnCommit != nil {
		s.OnCommit(time.Since(start))
	}
	return nil
}

// LoadBars returns the most recent limit bars in ascending time order.
// A non-positive limit returns the whole series.
func (s *Store) LoadBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, open, high, low, close, volume FROM (
			SELECT time, open, high, low, close, volume
			FROM bars
			WHERE symbol = ? AND tf = ?
			ORDER BY time DESC
			LIMIT ?
		) ORDER BY time ASC
	`, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
