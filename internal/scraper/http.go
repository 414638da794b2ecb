package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sjsage522/learningfield/helpers"
	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"
	"sjsage522/learningfield/services/cache"
)

// HTTPFetcher fetches raw HTML without rendering scripts. A host that answers
// with a rate-limit status is blocked in the cache for BlockTime.
type HTTPFetcher struct {
	Client    *http.Client
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// NewHTTPFetcher creates a plain HTTP fetcher
func NewHTTPFetcher(cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    helpers.DefaultClient,
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
	}
}

func blockKey(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return "learningfield:ratelimit:" + host
}

// Fetch retrieves the page unless its host is currently blocked
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	key := blockKey(rawURL)
	if f.CacheSvc != nil {
		if _, err := f.CacheSvc.Get(key); err == nil {
			return nil, apperrors.NewRateLimit("http", f.BlockTime)
		}
	}

	fetched, err := helpers.FetchWithBrowserHeaders(ctx, f.Client, rawURL)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeRateLimit) && f.CacheSvc != nil && f.BlockTime > 0 {
			value := []byte(strconv.Itoa(int(f.BlockTime / time.Second)))
			if setErr := f.CacheSvc.Set(key, value, f.BlockTime); setErr != nil {
				logger.ForScraper().Warn().Err(setErr).Str("key", key).Msg("Failed to record rate limit block")
			}
		}
		return nil, err
	}

	return &Page{URL: rawURL, FinalURL: fetched.FinalURL, HTML: string(fetched.Body)}, nil
}

// Close is a no-op; the HTTP client holds no per-pass resources
func (f *HTTPFetcher) Close() error { return nil }
