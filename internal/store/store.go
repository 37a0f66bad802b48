// Package store persists an audit trail of finished lookups. Records describe
// what was displayed; they are never read back as quotes.
package store

import (
	"context"
	"time"

	"github.com/sells-group/short-interest/internal/model"
)

// LookupRecord is one finished lookup as it was displayed.
type LookupRecord struct {
	ID           string        `json:"id"`
	Ticker       string        `json:"ticker"`
	Display      model.Display `json:"display"`
	UsedFallback bool          `json:"used_fallback"`
	CreatedAt    time.Time     `json:"created_at"`
}

// LookupFilter specifies criteria for listing lookups.
type LookupFilter struct {
	Ticker string `json:"ticker,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// defaultListLimit caps ListLookups when no limit is given.
const defaultListLimit = 100

// Store defines the persistence interface for lookup history.
type Store interface {
	// RecordLookup saves rec, assigning ID and CreatedAt when unset.
	RecordLookup(ctx context.Context, rec *LookupRecord) error
	// ListLookups returns records newest first.
	ListLookups(ctx context.Context, filter LookupFilter) ([]LookupRecord, error)
	// DeleteLookupsBefore removes records created before cutoff.
	DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// NoopStore discards everything. It backs the "none" driver.
type NoopStore struct{}

func (NoopStore) RecordLookup(context.Context, *LookupRecord) error { return nil }

func (NoopStore) ListLookups(context.Context, LookupFilter) ([]LookupRecord, error) {
	return nil, nil
}

func (NoopStore) DeleteLookupsBefore(context.Context, time.Time) (int, error) { return 0, nil }

func (NoopStore) Migrate(context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
