// Package fetch - cached.go layers database-backed caching over URL fetching.
package fetch

import (
	"context"
	"time"

	"github.com/jonathan/interview-coach/internal/db"
)

// PageCache stores and retrieves fetched pages.
type PageCache interface {
	GetFreshFetchedPage(ctx context.Context, url string, ttl time.Duration) (*db.FetchedPage, error)
	UpsertFetchedPage(ctx context.Context, page *db.FetchedPage) error
}

// CachedFetcher wraps URL fetching with database-backed caching. Job postings
// rarely change within a week, so repeat ingests of the same URL are served
// from the cache.
type CachedFetcher struct {
	cache     PageCache
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL:  db.DefaultPageCacheTTL,
		SkipCache: false,
		Options:   DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher. A nil cache disables caching
// and every Fetch hits the network.
func NewCachedFetcher(cache PageCache, config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = db.DefaultPageCacheTTL
	}
	return &CachedFetcher{
		cache:     cache,
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

// Fetch retrieves a URL, returning the cached copy when one is fresh.
// Fresh fetches are stored back in the cache; a cache write failure does not
// fail the fetch.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if !f.skipCache && f.cache != nil {
		cached, err := f.cache.GetFreshFetchedPage(ctx, urlStr, f.cacheTTL)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return &CachedResult{
				Result: &Result{
					URL:        cached.URL,
					HTML:       cached.HTML,
					Text:       cached.Text,
					StatusCode: cached.HTTPStatus,
				},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	text, _ := ExtractMainText(result.HTML, DefaultTextSelectors())
	result.Text = text

	if f.cache != nil {
		page := &db.FetchedPage{
			URL:        urlStr,
			HTML:       result.HTML,
			Text:       result.Text,
			HTTPStatus: result.StatusCode,
		}
		_ = f.cache.UpsertFetchedPage(ctx, page)
	}

	return &CachedResult{Result: result, FromCache: false}, nil
}
