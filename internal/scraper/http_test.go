package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "sjsage522/learningfield/pkg/errors"
	"sjsage522/learningfield/services/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(cache.NewMemoryService(), time.Minute)
	page, err := fetcher.Fetch(context.Background(), server.URL+"/post")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/post", page.URL)
	assert.Contains(t, page.HTML, "Hierarchical chunking")
	assert.NoError(t, fetcher.Close())
}

func TestHTTPFetcherBlocksRateLimitedHost(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cacheSvc := cache.NewMemoryService()
	fetcher := NewHTTPFetcher(cacheSvc, time.Minute)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/a")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))

	_, err = fetcher.Fetch(context.Background(), server.URL+"/b")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimit))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "blocked host is not requested again")

	value, err := cacheSvc.Get(blockKey(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "60", string(value))
}

type stubFetcher struct {
	page   *Page
	err    error
	calls  int
	closed bool
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p := *s.page
	p.URL = url
	return &p, nil
}

func (s *stubFetcher) Close() error {
	s.closed = true
	return nil
}

func TestFallbackFetcher(t *testing.T) {
	primary := &stubFetcher{err: errors.New("chrome not found")}
	secondary := &stubFetcher{page: &Page{HTML: articleHTML}}
	f := &FallbackFetcher{Primary: primary, Secondary: secondary}

	page, err := f.Fetch(context.Background(), "https://zenn.dev/a")
	require.NoError(t, err)
	assert.Equal(t, "https://zenn.dev/a", page.URL)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)

	require.NoError(t, f.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}

func TestFallbackFetcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &stubFetcher{err: context.Canceled}
	secondary := &stubFetcher{page: &Page{HTML: articleHTML}}
	f := &FallbackFetcher{Primary: primary, Secondary: secondary}

	_, err := f.Fetch(ctx, "https://zenn.dev/a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, secondary.calls)
}

func TestScraperScrape(t *testing.T) {
	s := New(&stubFetcher{page: &Page{HTML: articleHTML}})
	s.now = func() time.Time { return fixedNow }

	scraped, err := s.Scrape(context.Background(), "https://zenn.dev/carol/articles/rag")
	require.NoError(t, err)
	assert.Equal(t, ExternalID("https://zenn.dev/carol/articles/rag"), scraped.ExternalID)
	assert.Equal(t, fixedNow, scraped.CreatedAt)

	_, err = New(&stubFetcher{err: errors.New("boom")}).Scrape(context.Background(), "https://a.example")
	assert.EqualError(t, err, "boom")
}
