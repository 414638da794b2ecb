// Package scraper renders input URLs and extracts the readable text stored by the pipeline.
package scraper

import (
	"context"
	stderrors "errors"
	"time"

	"sjsage522/learningfield/logger"
)

// Scraper fetches a URL and extracts its content
type Scraper struct {
	fetcher Fetcher
	now     func() time.Time
}

// New creates a scraper over the given fetcher
func New(fetcher Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher, now: time.Now}
}

// Scrape fetches and extracts a single URL
func (s *Scraper) Scrape(ctx context.Context, url string) (*Scraped, error) {
	logger.ForScraper().Info().Str("url", url).Msg("Scraping")

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Extract(page, s.now().UTC())
}

// Close releases the fetcher
func (s *Scraper) Close() error {
	return s.fetcher.Close()
}

// FallbackFetcher tries Primary and, on a non-cancellation error, Secondary
type FallbackFetcher struct {
	Primary   Fetcher
	Secondary Fetcher
}

// Fetch implements Fetcher
func (f *FallbackFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	page, err := f.Primary.Fetch(ctx, url)
	if err == nil {
		return page, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logger.ForScraper().Warn().Err(err).Str("url", url).Msg("Primary fetch failed, trying fallback")
	return f.Secondary.Fetch(ctx, url)
}

// Close closes both fetchers
func (f *FallbackFetcher) Close() error {
	return stderrors.Join(f.Primary.Close(), f.Secondary.Close())
}
