package lookup

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/store"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "Yahoo Finance" }

func (m *mockProvider) Quote(ctx context.Context, ticker string) (*model.Quote, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quote), args.Error(1)
}

func (m *mockProvider) History(ctx context.Context, ticker string, period provider.Period) ([]model.PricePoint, error) {
	args := m.Called(ctx, ticker, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PricePoint), args.Error(1)
}

// --- Scraper Mock ---

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Scrape(ctx context.Context, ticker string) *model.ScrapeResult {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.ScrapeResult)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) RecordLookup(ctx context.Context, rec *store.LookupRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) ListLookups(ctx context.Context, filter store.LookupFilter) ([]store.LookupRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.LookupRecord), args.Error(1)
}

func (m *mockStore) DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}
