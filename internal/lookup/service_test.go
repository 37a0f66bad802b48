package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/store"
)

var testHistory = []model.PricePoint{
	{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Close: 101.5},
	{Date: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), Close: 103.25},
}

func TestNormalizeTicker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"spy", "SPY", false},
		{"  tsla ", "TSLA", false},
		{"BRK.B", "BRK.B", false},
		{"^GSPC", "^GSPC", false},
		{"EURUSD=X", "EURUSD=X", false},
		{"BTC-USD", "BTC-USD", false},
		{"", "", true},
		{"   ", "", true},
		{"SP Y", "", true},
		{"<script>", "", true},
		{"ABCDEFGHIJKLMNOP", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeTicker(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				var ie *InputError
				assert.ErrorAs(t, err, &ie)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_TSLAPrimaryComplete(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	sc := &mockScraper{}
	st := &mockStore{}

	p.On("Quote", mock.Anything, "TSLA").Return(&model.Quote{
		Ticker:              "TSLA",
		Name:                "Tesla, Inc.",
		QuoteType:           "EQUITY",
		Price:               model.Float64(248.42),
		ShortRatio:          model.Float64(1.85),
		ShortPercentOfFloat: model.Float64(0.0321),
		SharesShort:         model.Int64(91234567),
	}, nil)
	p.On("History", mock.Anything, "TSLA", provider.Period3Months).Return(testHistory, nil)
	st.On("RecordLookup", mock.Anything, mock.MatchedBy(func(r *store.LookupRecord) bool {
		return r.Ticker == "TSLA" && !r.UsedFallback
	})).Return(nil)

	svc := NewService(p, sc, st, Options{})
	res, err := svc.Lookup(context.Background(), "tsla", provider.Period3Months)
	require.NoError(t, err)

	assert.Equal(t, "TSLA", res.Ticker)
	assert.Equal(t, "Tesla, Inc.", res.Name)
	assert.Equal(t, "1.85", res.Display.ShortRatio.Value)
	assert.Equal(t, "Yahoo Finance", res.Display.ShortRatio.Source)
	assert.Equal(t, "3.21%", res.Display.ShortPercentOfFloat.Value)
	assert.Equal(t, "$248.42", res.Display.Price.Value)
	assert.False(t, res.UsedFallback)
	assert.Len(t, res.History, 2)
	assert.Empty(t, res.Warning)
	assert.NotEmpty(t, res.Links)

	sc.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
	p.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestLookup_SPYFallbackFillsShortFloat(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	sc := &mockScraper{}
	st := &mockStore{}

	p.On("Quote", mock.Anything, "SPY").Return(&model.Quote{
		Ticker:    "SPY",
		QuoteType: "ETF",
		Price:     model.Float64(512.31),
	}, nil)
	sc.On("Scrape", mock.Anything, "SPY").Return(&model.ScrapeResult{
		Source: "MarketWatch",
		URL:    "https://www.marketwatch.com/investing/fund/spy",
		Values: map[string]string{model.KeywordShortFloat: "5.20%"},
	})
	st.On("RecordLookup", mock.Anything, mock.MatchedBy(func(r *store.LookupRecord) bool {
		return r.Ticker == "SPY" && r.UsedFallback && r.Display.ShortPercentOfFloat.Value == "5.20%"
	})).Return(nil)

	svc := NewService(p, sc, st, Options{})
	res, err := svc.Lookup(context.Background(), "SPY", "")
	require.NoError(t, err)

	assert.Equal(t, "5.20%", res.Display.ShortPercentOfFloat.Value)
	assert.Equal(t, "MarketWatch", res.Display.ShortPercentOfFloat.Source)
	assert.Equal(t, model.NoData, res.Display.ShortRatio.Value)
	assert.Equal(t, model.NoData, res.Display.SharesShort.Value)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, "https://www.marketwatch.com/investing/fund/spy", res.ScrapeURL)
	assert.Nil(t, res.History)
	assert.Empty(t, res.Warning)

	p.AssertNotCalled(t, "History", mock.Anything, mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestLookup_FallbackEmptyKeepsPrimary(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	sc := &mockScraper{}

	p.On("Quote", mock.Anything, "QQQ").Return(&model.Quote{
		Ticker:     "QQQ",
		ShortRatio: model.Float64(2.1),
	}, nil)
	sc.On("Scrape", mock.Anything, "QQQ").Return(nil)

	svc := NewService(p, sc, nil, Options{})
	res, err := svc.Lookup(context.Background(), "QQQ", "")
	require.NoError(t, err)

	assert.Equal(t, "2.10", res.Display.ShortRatio.Value)
	assert.Equal(t, model.NoData, res.Display.ShortPercentOfFloat.Value)
	assert.Equal(t, model.NoData, res.Display.Price.Value)
	assert.False(t, res.UsedFallback)
	sc.AssertExpectations(t)
}

func TestLookup_AlwaysScrape(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	sc := &mockScraper{}

	p.On("Quote", mock.Anything, "TSLA").Return(&model.Quote{
		ShortRatio:          model.Float64(1),
		ShortPercentOfFloat: model.Float64(0.01),
		SharesShort:         model.Int64(10),
	}, nil)
	sc.On("Scrape", mock.Anything, "TSLA").Return(&model.ScrapeResult{
		Source: "Finviz",
		Values: map[string]string{model.KeywordShortRatio: "0.87"},
	})

	svc := NewService(p, sc, nil, Options{AlwaysScrape: true})
	res, err := svc.Lookup(context.Background(), "TSLA", "")
	require.NoError(t, err)

	assert.Equal(t, "0.87", res.Display.ShortRatio.Value)
	assert.Equal(t, "Finviz", res.Display.ShortRatio.Source)
	assert.Equal(t, "1.00%", res.Display.ShortPercentOfFloat.Value)
	assert.True(t, res.UsedFallback)
}

func TestLookup_NoScraper(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	p.On("Quote", mock.Anything, "SPY").Return(&model.Quote{Price: model.Float64(1)}, nil)

	svc := NewService(p, nil, nil, Options{})
	res, err := svc.Lookup(context.Background(), "SPY", "")
	require.NoError(t, err)
	assert.Equal(t, model.NoData, res.Display.ShortPercentOfFloat.Value)
	assert.False(t, res.UsedFallback)
}

func TestLookup_InvalidInput(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}

	svc := NewService(p, nil, nil, Options{})
	res, err := svc.Lookup(context.Background(), "not a ticker!", "")
	require.Error(t, err)
	assert.Nil(t, res)

	var ie *InputError
	assert.ErrorAs(t, err, &ie)
	p.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestLookup_PrimaryFailure(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	sc := &mockScraper{}
	st := &mockStore{}

	cause := errors.New("yahoo: quote ZZZZ: Quote not found for symbol: ZZZZ")
	p.On("Quote", mock.Anything, "ZZZZ").Return(nil, cause)

	svc := NewService(p, sc, st, Options{})
	res, err := svc.Lookup(context.Background(), "zzzz", provider.Period3Months)
	require.Error(t, err)
	assert.Nil(t, res)

	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "ZZZZ", le.Ticker)
	assert.Equal(t, "could not fetch data for ZZZZ", err.Error())
	assert.ErrorIs(t, err, cause)

	sc.AssertNotCalled(t, "Scrape", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "RecordLookup", mock.Anything, mock.Anything)
}

func TestLookup_HistoryFailureIsWarning(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	p.On("Quote", mock.Anything, "TSLA").Return(&model.Quote{
		ShortRatio:          model.Float64(1),
		ShortPercentOfFloat: model.Float64(0.01),
		SharesShort:         model.Int64(10),
	}, nil)
	p.On("History", mock.Anything, "TSLA", provider.Period1Year).Return(nil, errors.New("chart down"))

	svc := NewService(p, nil, nil, Options{})
	res, err := svc.Lookup(context.Background(), "TSLA", provider.Period1Year)
	require.NoError(t, err)
	assert.Nil(t, res.History)
	assert.Equal(t, HistoryUnavailable, res.Warning)
	assert.Equal(t, "1.00", res.Display.ShortRatio.Value)
}

func TestLookup_EmptyHistoryIsWarning(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	p.On("Quote", mock.Anything, "TSLA").Return(&model.Quote{}, nil)
	p.On("History", mock.Anything, "TSLA", provider.Period1Month).Return([]model.PricePoint{}, nil)

	svc := NewService(p, nil, nil, Options{})
	res, err := svc.Lookup(context.Background(), "TSLA", provider.Period1Month)
	require.NoError(t, err)
	assert.Equal(t, HistoryUnavailable, res.Warning)
}

func TestLookup_StoreFailureNotSurfaced(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	st := &mockStore{}
	p.On("Quote", mock.Anything, "SPY").Return(&model.Quote{Price: model.Float64(500)}, nil)
	st.On("RecordLookup", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	svc := NewService(p, nil, st, Options{})
	res, err := svc.Lookup(context.Background(), "SPY", "")
	require.NoError(t, err)
	assert.Equal(t, "$500.00", res.Display.Price.Value)
	st.AssertExpectations(t)
}

func TestHistory(t *testing.T) {
	t.Parallel()
	p := &mockProvider{}
	p.On("History", mock.Anything, "SPY", provider.Period6Months).Return(testHistory, nil)
	p.On("History", mock.Anything, "NOPE", provider.Period6Months).Return(nil, errors.New("delisted"))

	svc := NewService(p, nil, nil, Options{})

	points, err := svc.History(context.Background(), "spy", provider.Period6Months)
	require.NoError(t, err)
	assert.Equal(t, testHistory, points)

	_, err = svc.History(context.Background(), "NOPE", provider.Period6Months)
	var le *LookupError
	require.ErrorAs(t, err, &le)

	_, err = svc.History(context.Background(), "", provider.Period6Months)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
}
