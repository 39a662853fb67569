// Package archive owns the local SQLite price archive: schema, idempotent
// bulk inserts, and the per-symbol high-water mark the sync planner reads.
package archive

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockVault/internal/model"
)

// Store persists daily price history to a SQLite database. A single process
// owns the file; cross-process access relies on SQLite's own file locking.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so queries can read while a sync pass writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] archive opened: %s", path)
	return s, nil
}

// migrate creates the history table. The UNIQUE constraint with ON CONFLICT
// IGNORE makes the store itself enforce the one-row-per-(Symbol, Date)
// invariant: a duplicate insert is a silent no-op, never an overwrite.
func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history (
			Symbol    TEXT NOT NULL,
			Date      TEXT NOT NULL,
			Open      REAL,
			High      REAL,
			Low       REAL,
			Close     REAL,
			Volume    INTEGER,
			Dividends REAL,
			Splits    REAL,
			UNIQUE (Symbol, Date) ON CONFLICT IGNORE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_date ON history(Date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// DB exposes the underlying handle for the read-only query engine.
func (s *Store) DB() *sql.DB { return s.db }

// MaxDate returns the maximum stored value of the given date column for a
// symbol, or def when the symbol has no rows yet.
func (s *Store) MaxDate(symbol, column string, def time.Time) (time.Time, error) {
	if column != "Date" {
		return time.Time{}, fmt.Errorf("unknown date column %q", column)
	}

	var value sql.NullString
	err := s.db.QueryRow(`SELECT max(Date) FROM history WHERE Symbol = ?`, symbol).Scan(&value)
	if err != nil {
		return time.Time{}, fmt.Errorf("max date for %s: %w", symbol, err)
	}
	if !value.Valid {
		return def, nil
	}

	t, err := time.Parse(model.DateFormat, value.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored date %q for %s: %w", value.String, symbol, err)
	}
	return t, nil
}

// BulkUpsert inserts a batch of rows in one transaction. Rows whose
// (Symbol, Date) key already exists are silently skipped; the first write
// wins. On any failure the whole batch is rolled back. Returns the number of
// rows actually inserted.
func (s *Store) BulkUpsert(rows []model.PriceBar) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO history
		(Symbol, Date, Open, High, Low, Close, Volume, Dividends, Splits)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		res, err := stmt.Exec(row.Symbol, row.Date,
			row.Open, row.High, row.Low, row.Close,
			row.Volume, row.Dividends, row.Splits)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert %s %s: %w", row.Symbol, row.Date, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// Count returns the total number of stored rows.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT count(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	log.Println("[INFO] closing archive")
	return s.db.Close()
}
