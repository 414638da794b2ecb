// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sjsage522/learningfield/internal/store"
	"sjsage522/learningfield/logger"
	"sjsage522/learningfield/services/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

// PostReader is the store surface used by the API
type PostReader interface {
	ListPosts(ctx context.Context, filter store.PostFilter) ([]store.PostWithSource, error)
	Categories(ctx context.Context) ([]string, error)
	IncrementLike(ctx context.Context, id uuid.UUID) (int, error)
}

// Options configures the server
type Options struct {
	Port           string
	AllowedOrigins []string
	Production     bool
}

// Server is the catalog API
type Server struct {
	opts    Options
	handler *Handler
	router  *gin.Engine
}

// New builds the router. A nil index disables full-text search.
func New(opts Options, posts PostReader, index search.Index) *Server {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if index == nil {
		index = search.NopIndex{}
	}

	h := NewHandler(posts, index)
	router := gin.New()
	setupCORS(router, opts.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/healthz", h.Health)

	api := router.Group("/api")
	{
		api.GET("/posts", h.ListPosts)
		api.GET("/categories", h.Categories)
		api.POST("/posts/:id/like", h.Like)
	}

	return &Server{opts: opts, handler: h, router: router}
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.ForServer().Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.ForServer().Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.ForServer().Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.ForServer().Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}
