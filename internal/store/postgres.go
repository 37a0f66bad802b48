package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	ticker        TEXT NOT NULL,
	display       JSONB NOT NULL,
	used_fallback BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookups_ticker ON lookups(ticker);
CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordLookup(ctx context.Context, rec *LookupRecord) error {
	stampRecord(rec)

	displayJSON, err := json.Marshal(rec.Display)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal display")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookups (id, ticker, display, used_fallback, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Ticker, displayJSON, rec.UsedFallback, rec.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert lookup %s", rec.Ticker)
	}
	return nil
}

func (s *PostgresStore) ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error) {
	query := `SELECT id, ticker, display, used_fallback, created_at FROM lookups WHERE 1=1`
	var args []any
	argN := 1

	if filter.Ticker != "" {
		query += ` AND ticker = $` + strconv.Itoa(argN)
		args = append(args, filter.Ticker)
		argN++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT $` + strconv.Itoa(argN)
	args = append(args, limit)
	argN++

	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lookups")
	}
	defer rows.Close()

	var out []LookupRecord
	for rows.Next() {
		var rec LookupRecord
		var displayJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Ticker, &displayJSON, &rec.UsedFallback, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lookup")
		}
		if err := json.Unmarshal(displayJSON, &rec.Display); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal display")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list lookups iterate")
}

func (s *PostgresStore) DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lookups WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete lookups")
	}
	return int(tag.RowsAffected()), nil
}
