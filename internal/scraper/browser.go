package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/learningfield/helpers"
	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserOptions configures the headless browser
type BrowserOptions struct {
	Bin               string
	NavigationTimeout time.Duration
	IdleWindow        time.Duration
	ViewportWidth     int
	ViewportHeight    int
}

// DefaultBrowserOptions mirrors a desktop Chrome window
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		NavigationTimeout: 60 * time.Second,
		IdleWindow:        500 * time.Millisecond,
		ViewportWidth:     1280,
		ViewportHeight:    800,
	}
}

// BrowserFetcher renders pages in one headless Chrome shared across a pass.
// Chrome is launched on first use.
type BrowserFetcher struct {
	opts BrowserOptions
	log  *logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserFetcher creates a fetcher backed by go-rod
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	defaults := DefaultBrowserOptions()
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = defaults.NavigationTimeout
	}
	if opts.IdleWindow <= 0 {
		opts.IdleWindow = defaults.IdleWindow
	}
	if opts.ViewportWidth <= 0 || opts.ViewportHeight <= 0 {
		opts.ViewportWidth, opts.ViewportHeight = defaults.ViewportWidth, defaults.ViewportHeight
	}
	return &BrowserFetcher{
		opts: opts,
		log:  logger.ForScraper().WithField("fetcher", "browser"),
	}
}

func (f *BrowserFetcher) ensureBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-setuid-sandbox")
	if f.opts.Bin != "" {
		l = l.Bin(f.opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, apperrors.NewNetwork("browser", "failed to launch chrome", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, apperrors.NewNetwork("browser", "failed to connect to chrome", err)
	}

	f.launcher = l
	f.browser = browser
	f.log.Info().Str("control_url", controlURL).Msg("Browser launched")
	return browser, nil
}

// Fetch opens a fresh tab, navigates, waits for the network to settle and returns the HTML
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	browser, err := f.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, apperrors.NewNetwork("browser", "failed to open page", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.log.Debug().Err(err).Str("url", url).Msg("Failed to close page")
		}
	}()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: helpers.DesktopUserAgent}); err != nil {
		return nil, apperrors.NewNetwork("browser", "failed to set user agent", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.opts.ViewportWidth,
		Height:            f.opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, apperrors.NewNetwork("browser", "failed to set viewport", err)
	}

	timed := page.Timeout(f.opts.NavigationTimeout)
	defer timed.CancelTimeout()
	waitIdle := timed.WaitRequestIdle(f.opts.IdleWindow, nil, nil, nil)
	if err := timed.Navigate(url); err != nil {
		return nil, apperrors.NewNetwork("browser", fmt.Sprintf("failed to navigate to %s", url), err)
	}
	waitIdle()

	html, err := timed.HTML()
	if err != nil {
		return nil, apperrors.NewExtraction("browser", "failed to read page HTML", err)
	}

	finalURL := url
	if info, err := timed.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Page{URL: url, FinalURL: finalURL, HTML: html}, nil
}

// Close shuts the browser down if it was launched
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Cleanup()
	f.browser = nil
	f.launcher = nil
	return err
}
