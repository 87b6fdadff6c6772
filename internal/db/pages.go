package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultPageCacheTTL is how long a fetched job posting stays fresh.
const DefaultPageCacheTTL = 7 * 24 * time.Hour

// FetchedPage is a cached copy of a fetched job posting.
type FetchedPage struct {
	URL        string    `json:"url"`
	HTML       string    `json:"html"`
	Text       string    `json:"text"`
	HTTPStatus int       `json:"httpStatus"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// GetFreshFetchedPage returns the cached page for a URL if it was fetched
// within ttl. Returns (nil, nil) when there is no fresh copy.
func (db *DB) GetFreshFetchedPage(ctx context.Context, url string, ttl time.Duration) (*FetchedPage, error) {
	var p FetchedPage
	cutoff := time.Now().Add(-ttl)
	err := db.pool.QueryRow(ctx,
		`SELECT url, html, text, http_status, fetched_at
		 FROM fetched_pages
		 WHERE url = $1 AND fetched_at > $2`,
		url, cutoff,
	).Scan(&p.URL, &p.HTML, &p.Text, &p.HTTPStatus, &p.FetchedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fetched page: %w", err)
	}
	return &p, nil
}

// UpsertFetchedPage stores or refreshes the cached copy of a URL.
func (db *DB) UpsertFetchedPage(ctx context.Context, page *FetchedPage) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO fetched_pages (url, html, text, http_status, fetched_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (url) DO UPDATE
		 SET html = EXCLUDED.html, text = EXCLUDED.text,
		     http_status = EXCLUDED.http_status, fetched_at = NOW()`,
		page.URL, page.HTML, page.Text, page.HTTPStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fetched page: %w", err)
	}
	return nil
}

// DeleteFetchedPage drops the cached copy of a URL, forcing a re-fetch.
func (db *DB) DeleteFetchedPage(ctx context.Context, url string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM fetched_pages WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("failed to delete fetched page: %w", err)
	}
	return nil
}
