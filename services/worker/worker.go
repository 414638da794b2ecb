package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sjsage522/learningfield/internal/analyzer"
	"sjsage522/learningfield/internal/scraper"
	"sjsage522/learningfield/internal/store"
	"sjsage522/learningfield/internal/urllist"
	"sjsage522/learningfield/logger"
	"sjsage522/learningfield/services/notifier"
	"sjsage522/learningfield/services/publisher"
	"sjsage522/learningfield/services/search"

	"github.com/lib/pq"
)

const (
	// EventPostAdded is published for every stored post, also used as the stream field
	EventPostAdded = "post.added"

	notifyTimeout = 15 * time.Second
)

// Scraper fetches and extracts one URL
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Scraped, error)
	Close() error
}

// Classifier analyzes extracted text
type Classifier interface {
	Classify(ctx context.Context, text, linkedURL string) (*analyzer.Analysis, error)
}

// PostStore is the subset of the store used by a pass
type PostStore interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	UpsertSource(ctx context.Context, username string) (*store.Source, error)
	InsertPost(ctx context.Context, post *store.Post) error
}

// Event is the message published when a post is stored
type Event struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Category   string `json:"category"`
	Status     string `json:"status"`
}

// RunStats counts the outcome of every URL in a pass
type RunStats struct {
	Total         int `json:"total"`
	Added         int `json:"added"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	Existing      int `json:"existing"`
	Paywalled     int `json:"paywalled"`
	PendingReview int `json:"pending_review"`
}

// Options configures a worker
type Options struct {
	InputFile   string
	PacingDelay time.Duration
}

// Worker runs curation passes over the URL list
type Worker struct {
	opts       Options
	scraper    Scraper
	classifier Classifier
	store      PostStore
	publisher  publisher.Publisher
	index      search.Index
	notifier   notifier.Notifier
}

// NewWorker creates a new worker. Nil publisher and index are replaced with no-ops.
func NewWorker(
	opts Options,
	scr Scraper,
	classifier Classifier,
	st PostStore,
	pub publisher.Publisher,
	index search.Index,
	n notifier.Notifier,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	if index == nil {
		index = search.NopIndex{}
	}
	return &Worker{
		opts:       opts,
		scraper:    scr,
		classifier: classifier,
		store:      st,
		publisher:  pub,
		index:      index,
		notifier:   n,
	}
}

// RunOnce processes every URL in the input file sequentially. A cancelled
// context stops the pass between URLs; the partial stats are returned with
// ctx.Err() and the notification is still sent.
func (w *Worker) RunOnce(ctx context.Context) (RunStats, error) {
	log := logger.ForPipeline()
	var stats RunStats

	urls, err := urllist.Read(w.opts.InputFile)
	if errors.Is(err, urllist.ErrNoInput) {
		log.Info().Str("path", w.opts.InputFile).Msg("No input file found")
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	if len(urls) == 0 {
		log.Info().Str("path", w.opts.InputFile).Msg("No URLs found in file")
		return stats, nil
	}

	stats.Total = len(urls)
	log.Info().Int("count", len(urls)).Msg("Starting aggregation")
	start := time.Now()

	defer func() {
		if err := w.scraper.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close scraper")
		}
	}()

	var runErr error
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := w.processURL(ctx, url, &stats); err != nil {
			runErr = err
			break
		}
	}

	w.finish(ctx, stats)

	log.Info().
		Int("added", stats.Added).
		Int("existing", stats.Existing).
		Int("skipped", stats.Skipped).
		Int("paywalled", stats.Paywalled).
		Int("failed", stats.Failed).
		Int("pending_review", stats.PendingReview).
		Dur("elapsed", time.Since(start)).
		Msgf("Done. Added %d new posts.", stats.Added)

	return stats, runErr
}

// processURL handles one URL. Only context cancellation is returned; every
// other failure is logged and counted.
func (w *Worker) processURL(ctx context.Context, url string, stats *RunStats) error {
	log := logger.ForPipeline().WithField("url", url)
	externalID := scraper.ExternalID(url)

	exists, err := w.store.ExistsByExternalID(ctx, externalID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check existing post")
		stats.Failed++
		return ctx.Err()
	}
	if exists {
		log.Info().Str("external_id", externalID).Msg("Skipping existing")
		stats.Existing++
		return nil
	}

	// Wait before every fetch to stay under rate limits
	if err := w.pace(ctx); err != nil {
		return err
	}

	scraped, err := w.scraper.Scrape(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("Failed to scrape")
		stats.Failed++
		return nil
	}

	if logger.IsDebugEnabled() {
		log.Debug().
			Str("external_id", scraped.ExternalID).
			Str("preview", preview(scraped.Text, 200)).
			Msg("Scraped content")
	}

	source, err := w.store.UpsertSource(ctx, scraped.Username)
	if err != nil {
		log.Error().Err(err).Str("username", scraped.Username).Msg("Failed to create/get source")
		stats.Failed++
		return ctx.Err()
	}

	analysis, err := w.classifier.Classify(ctx, scraped.Text, scraped.LinkedURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("external_id", scraped.ExternalID).Msg("Skipping due to AI analysis error")
		stats.Skipped++
		return nil
	}

	if analysis.IsPaywalled {
		log.Info().Str("external_id", scraped.ExternalID).Msg("Skipping paywalled content")
		stats.Paywalled++
		return nil
	}

	status := store.StatusPublished
	if !analysis.IsTechRelated {
		status = store.StatusPendingReview
		log.Info().Str("external_id", scraped.ExternalID).Msg("Content marked as non-tech related, setting status to pending_review")
	}

	post := &store.Post{
		ExternalID:    scraped.ExternalID,
		SourceID:      source.ID,
		Content:       scraped.Text,
		Title:         scraped.Title,
		URL:           scraped.DisplayURL(),
		Category:      analysis.Category,
		Difficulty:    analysis.Difficulty,
		Tags:          pq.StringArray(analysis.Tags),
		IsPaywalled:   analysis.IsPaywalled,
		Summary:       analysis.Summary,
		PostedAt:      scraped.CreatedAt,
		IsTechRelated: analysis.IsTechRelated,
		Status:        status,
	}

	if err := w.store.InsertPost(ctx, post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Info().Str("external_id", post.ExternalID).Msg("Skipping existing")
			stats.Existing++
			return nil
		}
		log.Error().Err(err).Msg("Insert error")
		stats.Failed++
		return ctx.Err()
	}

	stats.Added++
	if status == store.StatusPendingReview {
		stats.PendingReview++
	}
	log.Info().Str("external_id", post.ExternalID).Str("id", post.ID.String()).Msg("Added")

	w.announce(ctx, post)
	return nil
}

// announce publishes the event and indexes the post; failures are logged only
func (w *Worker) announce(ctx context.Context, post *store.Post) {
	event := Event{
		Type:       EventPostAdded,
		ID:         post.ID.String(),
		ExternalID: post.ExternalID,
		Title:      post.Title,
		URL:        post.URL,
		Category:   post.Category,
		Status:     post.Status,
	}
	data, err := json.Marshal(event)
	if err == nil {
		err = w.publisher.Publish(ctx, EventPostAdded, data)
	}
	if err != nil {
		logger.ForPublisher().Warn().Err(err).Str("id", event.ID).Msg("Failed to publish event")
	}

	if err := w.index.IndexPost(ctx, post); err != nil {
		logger.ForSearch().Warn().Err(err).Str("id", event.ID).Msg("Failed to index post")
	}
}

// finish trims the streams and sends the notification, even after cancellation
func (w *Worker) finish(ctx context.Context, stats RunStats) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := w.publisher.TrimStreams(ctx); err != nil {
		logger.LogError("publisher", err, "Stream trimming failed")
	}

	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, stats.Added); err != nil {
		logger.LogError("notifier", err, "Notification failed")
	}
}

func (w *Worker) pace(ctx context.Context) error {
	if w.opts.PacingDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(w.opts.PacingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
