package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"

	apperrors "sjsage522/learningfield/pkg/errors"

	"golang.org/x/net/html/charset"
)

// DesktopUserAgent is the user agent presented by both the browser and the HTTP fetcher
const DesktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTP client and header configurations
var (
	acceptLanguages = []string{
		"ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7",
		"en-US,en;q=0.9,ja;q=0.8",
	}

	referers = []string{
		"https://www.google.com/",
		"https://x.com/",
		"https://news.ycombinator.com/",
	}

	// DefaultClient is the HTTP client used when callers pass nil
	DefaultClient = &http.Client{
		Timeout: 30 * time.Second,
	}
)

// FetchedPage is a UTF-8 response body plus the URL it was served from
type FetchedPage struct {
	Body     []byte
	FinalURL string
}

// FetchWithBrowserHeaders sends an HTTP GET request with browser-like headers
// and converts the response body to UTF-8 if needed.
func FetchWithBrowserHeaders(ctx context.Context, client *http.Client, url string) (*FetchedPage, error) {
	if client == nil {
		client = DefaultClient
	}
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", DesktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", acceptLanguages[rnd.Intn(len(acceptLanguages))])
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork("http", "failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return nil, apperrors.NewRateLimit("http", RetryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork("http", fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetwork("http", "failed to read response body", err)
	}

	page := &FetchedPage{Body: bodyBytes, FinalURL: resp.Request.URL.String()}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return page, nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewExtraction("http", "failed to read converted UTF-8 body", err)
	}
	page.Body = buf.Bytes()

	return page, nil
}

// RetryAfter parses a Retry-After header given in seconds; zero when absent or malformed
func RetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
