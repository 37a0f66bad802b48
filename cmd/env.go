package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/short-interest/internal/fetcher"
	"github.com/sells-group/short-interest/internal/lookup"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/resilience"
	"github.com/sells-group/short-interest/internal/scrape"
	"github.com/sells-group/short-interest/internal/store"
)

// lookupEnv holds the service and the resources the lookup, batch and serve
// commands share.
type lookupEnv struct {
	Store   store.Store
	Service *lookup.Service
	// Period is the configured default history period.
	Period provider.Period
	// Breakers guard the secondary sites.
	Breakers *resilience.HostBreakers
}

// Close releases resources held by the environment.
func (le *lookupEnv) Close() {
	if le.Store != nil {
		_ = le.Store.Close()
	}
}

// initStore opens the configured history store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "none":
		return store.NoopStore{}, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initLookup validates config for mode and wires provider, scraper chain and
// store into a lookup.Service. Callers should defer env.Close().
func initLookup(ctx context.Context, mode string) (*lookupEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	period, err := provider.ParsePeriod(cfg.Lookup.HistoryPeriod)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	yahoo, err := provider.NewYahoo(provider.YahooConfig{
		BaseURL:   cfg.Provider.BaseURL,
		CookieURL: cfg.Provider.CookieURL,
		UserAgent: cfg.Provider.UserAgent,
		Timeout:   time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	breakers := resilience.NewHostBreakers(resilience.BreakerConfig{
		FailureThreshold: cfg.Scrape.BreakerThreshold,
		Cooldown:         time.Duration(cfg.Scrape.BreakerCooldownSecs) * time.Second,
	})
	siteFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Scrape.UserAgent,
		Timeout:   time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		Breakers:  breakers,
		Blocked:   scrape.IsBlocked,
	})
	chain, err := scrape.NewSiteChain(siteFetcher, cfg.Scrape.Sites, scrape.SiteOptions{
		UserAgent: cfg.Scrape.UserAgent,
		BaseURLs:  cfg.Scrape.BaseURLs,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := lookup.NewService(yahoo, chain, st, lookup.Options{AlwaysScrape: cfg.Scrape.Always})
	return &lookupEnv{Store: st, Service: svc, Period: period, Breakers: breakers}, nil
}
