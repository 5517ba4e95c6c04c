package f95zone

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/jj-development3dx/hz-publisher/lib/result"
)

// PageCache stores fetched HTML keyed by normalized URL with a TTL.
// Misses and cache errors are never fatal; callers fall through to the
// network.
type PageCache struct {
	db *sql.DB
}

func NewPageCache(database *sql.DB) PageCache {
	return PageCache{db: database}
}

func (p PageCache) key(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	return u.String(), nil
}

var errPageNotCached = errors.New("webpage not cached")

func (p PageCache) get(ctx context.Context, rawURL string) (string, error) {
	key, err := p.key(rawURL)
	if err != nil {
		return "", err
	}

	row := p.db.QueryRowContext(
		ctx,
		`SELECT contents, expires_at FROM webpage_cache WHERE url = ?`,
		key,
	)
	var contents string
	var expiresAt int64
	err = row.Scan(&contents, &expiresAt)
	if err == sql.ErrNoRows {
		return "", errPageNotCached
	}
	if err != nil {
		return "", err
	}

	if time.Now().Unix() >= expiresAt {
		_, err = p.db.ExecContext(ctx, `DELETE FROM webpage_cache WHERE url = ?`, key)
		if err != nil {
			return "", err
		}
		return "", errPageNotCached
	}
	return contents, nil
}

func (p PageCache) set(ctx context.Context, rawURL, contents string, ttl time.Duration) error {
	key, err := p.key(rawURL)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(
		ctx,
		`INSERT INTO webpage_cache (url, contents, expires_at) VALUES (?, ?, ?)
			ON CONFLICT (url) DO UPDATE SET contents = excluded.contents, expires_at = excluded.expires_at`,
		key, contents, time.Now().Add(ttl).Unix(),
	)
	return err
}

// FetchHTMLCached serves the page from the cache when fresh, fetching and
// caching it otherwise.
func (c *Client) FetchHTMLCached(ctx context.Context, rawURL string, cache PageCache, ttl time.Duration) result.Result[*Error, string] {
	cached, err := cache.get(ctx, rawURL)
	if err == nil {
		return result.Ok[*Error](cached)
	}
	if err != errPageNotCached {
		slog.WarnContext(ctx, "page cache read failed", "url", rawURL, "err", err)
	}

	fetched := c.FetchHTML(ctx, rawURL)
	if fetched.IsFailure() {
		return fetched
	}

	err = cache.set(ctx, rawURL, fetched.Value(), ttl)
	if err != nil {
		slog.WarnContext(ctx, "page cache write failed", "url", rawURL, "err", err)
	}
	return fetched
}
