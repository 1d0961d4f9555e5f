// Package fetch - cached.go wraps URL fetching with database-backed caching.
package fetch

import (
	"context"
	"time"

	"github.com/demandos/sourcing-agent/internal/db"
)

// CachedFetcher wraps URL fetching with database-backed caching. Trend pages
// change slowly, so a fresh cached copy is served instead of refetching.
type CachedFetcher struct {
	db        *db.DB
	options   *Options
	cacheTTL  time.Duration
	skipCache bool // For testing or forcing fresh fetches
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// NewCachedFetcher creates a new cached fetcher. database may be nil, in which
// case every fetch goes to the network.
func NewCachedFetcher(database *db.DB, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = &CachedFetcherConfig{}
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{
		db:        database,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, serving from cache when a fresh copy exists.
// Fresh fetches are written back to the cache; cache write failures do not
// fail the fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if !f.skipCache && f.db != nil {
		if page, err := f.db.GetFreshPage(ctx, urlStr, f.cacheTTL); err == nil && page != nil {
			return &CachedResult{
				Result:    &Result{URL: urlStr, HTML: page.HTML},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	if f.db != nil {
		_ = f.db.SavePage(ctx, urlStr, result.HTML)
	}

	return &CachedResult{Result: result}, nil
}
