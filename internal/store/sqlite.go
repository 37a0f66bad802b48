package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id            TEXT PRIMARY KEY,
	ticker        TEXT NOT NULL,
	display       TEXT NOT NULL,
	used_fallback INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookups_ticker ON lookups(ticker);
CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordLookup(ctx context.Context, rec *LookupRecord) error {
	stampRecord(rec)

	displayJSON, err := json.Marshal(rec.Display)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal display")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookups (id, ticker, display, used_fallback, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Ticker, string(displayJSON), rec.UsedFallback, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert lookup %s", rec.Ticker)
	}
	return nil
}

func (s *SQLiteStore) ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error) {
	query := `SELECT id, ticker, display, used_fallback, created_at FROM lookups WHERE 1=1`
	var args []any

	if filter.Ticker != "" {
		query += ` AND ticker = ?`
		args = append(args, filter.Ticker)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lookups")
	}
	defer rows.Close() //nolint:errcheck

	var out []LookupRecord
	for rows.Next() {
		var rec LookupRecord
		var displayJSON string
		if err := rows.Scan(&rec.ID, &rec.Ticker, &displayJSON, &rec.UsedFallback, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lookup")
		}
		if err := json.Unmarshal([]byte(displayJSON), &rec.Display); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal display")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list lookups iterate")
}

func (s *SQLiteStore) DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lookups WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete lookups")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// stampRecord fills the generated fields of a new record.
func stampRecord(rec *LookupRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	// SQLite compares timestamps as text, so every row is written in UTC.
	rec.CreatedAt = rec.CreatedAt.UTC()
}
