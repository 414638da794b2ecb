package scraper

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"sjsage522/learningfield/helpers"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	// MaxContentLength caps stored text so prompts stay within model token limits
	MaxContentLength = 5000

	// shortContentThreshold marks text that is likely a login wall or failed parse
	shortContentThreshold = 50

	noContentPlaceholder = "No content extracted"
)

// Extract turns a rendered page into the fields the pipeline stores
func Extract(page *Page, now time.Time) (*Scraped, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, apperrors.NewExtraction("extract", "failed to parse HTML", err)
	}

	base, err := url.Parse(page.BaseURL())
	if err != nil {
		return nil, apperrors.NewExtraction("extract", "invalid page URL "+page.BaseURL(), err)
	}

	var articleText, articleTitle string
	if article, err := readability.FromReader(strings.NewReader(page.HTML), base); err == nil {
		articleText = strings.TrimSpace(article.TextContent)
		articleTitle = strings.TrimSpace(article.Title)
	}

	metaDescription := strings.TrimSpace(doc.Find(`meta[property="og:description"]`).First().AttrOr("content", ""))
	metaTitle := strings.TrimSpace(doc.Find("title").First().Text())

	content := articleText
	if utf8.RuneCountInString(content) < shortContentThreshold &&
		utf8.RuneCountInString(metaDescription) > utf8.RuneCountInString(content) {
		content = metaDescription
	}
	if content == "" {
		content = metaTitle
	}
	if content == "" {
		content = noContentPlaceholder
	}
	content = helpers.Truncate(helpers.CollapseWhitespace(content), MaxContentLength)

	title := articleTitle
	if title == "" {
		title = metaTitle
	}

	// Direct articles keep their own URL; only posts on X/Twitter point elsewhere.
	var linked string
	if IsTwitter(page.URL) {
		linked = firstExternalLink(doc, base)
	}

	return &Scraped{
		ExternalID:  ExternalID(page.URL),
		Username:    Username(page.URL),
		Title:       title,
		Text:        content,
		LinkedURL:   linked,
		OriginalURL: page.URL,
		CreatedAt:   now,
	}, nil
}

func firstExternalLink(doc *goquery.Document, base *url.URL) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		if isExcludedLinkHost(abs.Hostname()) {
			return true
		}
		found = abs.String()
		return false
	})
	return found
}
