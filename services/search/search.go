package search

import (
	"context"

	"sjsage522/learningfield/internal/store"

	"github.com/google/uuid"
)

// IndexName is the Meilisearch index holding analyzed posts
const IndexName = "analyzed_posts"

// Filter narrows a full-text search
type Filter struct {
	Status     string
	Category   string
	Difficulty string
	Tag        string
	Limit      int
	Offset     int
}

// Index is a full-text index over stored posts
type Index interface {
	IndexPost(ctx context.Context, post *store.Post) error
	Search(ctx context.Context, query string, filter Filter) ([]uuid.UUID, error)
	Enabled() bool
}

// NopIndex is used when no search backend is configured
type NopIndex struct{}

// IndexPost does nothing
func (NopIndex) IndexPost(ctx context.Context, post *store.Post) error { return nil }

// Search returns no results
func (NopIndex) Search(ctx context.Context, query string, filter Filter) ([]uuid.UUID, error) {
	return nil, nil
}

// Enabled reports false
func (NopIndex) Enabled() bool { return false }
