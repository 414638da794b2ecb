package main

import (
	"context"

	"sjsage522/learningfield/config"
	"sjsage522/learningfield/internal/analyzer"
	"sjsage522/learningfield/internal/scraper"
	"sjsage522/learningfield/internal/server"
	"sjsage522/learningfield/internal/store"
	"sjsage522/learningfield/logger"
	"sjsage522/learningfield/services/cache"
	"sjsage522/learningfield/services/notifier"
	"sjsage522/learningfield/services/publisher"
	"sjsage522/learningfield/services/search"
	"sjsage522/learningfield/services/worker"
)

// Services holds all the initialized services
type Services struct {
	Store      *store.Store
	Cache      cache.CacheService
	Publisher  publisher.Publisher
	Index      search.Index
	Classifier *analyzer.Classifier
	Notifier   notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Classifier != nil {
		s.Classifier.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	services.Store = st
	logger.Info("Connected to PostgreSQL")

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s unavailable, using in-process cache: %v", cfg.MemcacheAddr, err)
			services.Cache = cache.NewMemoryService()
		} else {
			services.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	} else {
		services.Cache = cache.NewMemoryService()
	}

	// Initialize publisher
	services.Publisher = publisher.NopPublisher{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.Warn("Redis at %s unavailable, events disabled: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	// Initialize search index
	services.Index = search.NopIndex{}
	if cfg.MeiliSearchHost != "" {
		meili := search.NewMeiliIndex(cfg.MeiliSearchHost, cfg.MeiliMasterKey)
		if err := meili.Init(); err != nil {
			logger.Warn("Meilisearch at %s unavailable, search disabled: %v", cfg.MeiliSearchHost, err)
		} else {
			services.Index = meili
		}
	}

	classifier, err := analyzer.New(ctx, analyzer.Options{
		LMStudioBaseURL: cfg.LMStudioBaseURL,
		LMStudioModel:   cfg.LMStudioModel,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
	})
	if err != nil {
		services.Cleanup()
		return nil, err
	}
	services.Classifier = classifier

	services.Notifier = notifier.NewDiscord(cfg.DiscordWebhookURL)

	return services, nil
}

// newFetcher picks the headless browser with a plain HTTP fallback, or HTTP only
func (s *Services) newFetcher(cfg *config.Config) scraper.Fetcher {
	httpFetcher := scraper.NewHTTPFetcher(s.Cache, cfg.RateLimitBlock)
	if !cfg.BrowserEnabled {
		return httpFetcher
	}

	opts := scraper.DefaultBrowserOptions()
	opts.Bin = cfg.BrowserBin
	opts.NavigationTimeout = cfg.NavigationTimeout
	return &scraper.FallbackFetcher{
		Primary:   scraper.NewBrowserFetcher(opts),
		Secondary: httpFetcher,
	}
}

// NewWorker wires a worker for one pass
func (s *Services) NewWorker(cfg *config.Config) *worker.Worker {
	return worker.NewWorker(
		worker.Options{InputFile: cfg.InputFile, PacingDelay: cfg.PacingDelay},
		scraper.New(s.newFetcher(cfg)),
		s.Classifier,
		s.Store,
		s.Publisher,
		s.Index,
		s.Notifier,
	)
}

// runnerFunc builds a fresh worker per scheduled pass so each pass owns its browser
type runnerFunc func(ctx context.Context) (worker.RunStats, error)

func (f runnerFunc) RunOnce(ctx context.Context) (worker.RunStats, error) { return f(ctx) }

// NewScheduler wires the cron scheduler
func (s *Services) NewScheduler(cfg *config.Config) *worker.Scheduler {
	return worker.NewScheduler(cfg.ScheduleCron, runnerFunc(func(ctx context.Context) (worker.RunStats, error) {
		return s.NewWorker(cfg).RunOnce(ctx)
	}))
}

// NewServer wires the HTTP API
func (s *Services) NewServer(cfg *config.Config) *server.Server {
	return server.New(server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.IsProduction(),
	}, s.Store, s.Index)
}
