package scraper

import (
	"context"
	"time"
)

// Page is a rendered document as returned by a Fetcher
type Page struct {
	URL      string
	FinalURL string
	HTML     string
}

// BaseURL is the URL relative links on the page resolve against
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// Scraped is the readable content extracted from one input URL
type Scraped struct {
	ExternalID  string
	Username    string
	Title       string
	Text        string
	LinkedURL   string
	OriginalURL string
	CreatedAt   time.Time
}

// DisplayURL is the link stored for the reader: the external link when found, else the input URL
func (s *Scraped) DisplayURL() string {
	if s.LinkedURL != "" {
		return s.LinkedURL
	}
	return s.OriginalURL
}

// Fetcher renders a URL into HTML
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}
