package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultPageCacheTTL is how long fetched pages stay fresh.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// SavePage upserts a fetched page into the cache.
func (db *DB) SavePage(ctx context.Context, url, html string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO page_cache (url, html, fetched_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (url) DO UPDATE SET html = $2, fetched_at = NOW()`,
		url, html,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

// GetFreshPage returns a cached page if it is younger than ttl, nil otherwise.
func (db *DB) GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*CachedPage, error) {
	var page CachedPage

	err := db.pool.QueryRow(ctx,
		`SELECT url, html, fetched_at FROM page_cache WHERE url = $1`,
		url,
	).Scan(&page.URL, &page.HTML, &page.FetchedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}

	if time.Since(page.FetchedAt) > ttl {
		return nil, nil
	}

	return &page, nil
}
