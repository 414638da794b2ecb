package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Post statuses
const (
	StatusPublished     = "published"
	StatusPendingReview = "pending_review"
)

// Source is the account or site a post was collected from
type Source struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Post is one analyzed learning resource
type Post struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	ExternalID    string         `db:"external_id" json:"external_id"`
	SourceID      uuid.UUID      `db:"source_id" json:"source_id"`
	Content       string         `db:"content" json:"content"`
	Title         string         `db:"title" json:"title,omitempty"`
	URL           string         `db:"url" json:"url"`
	Category      string         `db:"category" json:"category"`
	Difficulty    string         `db:"difficulty" json:"difficulty"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	IsPaywalled   bool           `db:"is_paywalled" json:"is_paywalled"`
	Summary       string         `db:"summary" json:"summary,omitempty"`
	PostedAt      time.Time      `db:"posted_at" json:"posted_at"`
	IsTechRelated bool           `db:"is_tech_related" json:"is_tech_related"`
	Status        string         `db:"status" json:"status"`
	LikeCount     int            `db:"like_count" json:"like_count"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// SourceRef is the joined source shown alongside a post
type SourceRef struct {
	Username string `db:"username" json:"username"`
}

// PostWithSource is a post joined with its source's username
type PostWithSource struct {
	Post
	Source SourceRef `db:"source" json:"source"`
}

// IsNew reports whether the post was stored within window of now
func (p *PostWithSource) IsNew(now time.Time, window time.Duration) bool {
	return now.Sub(p.CreatedAt) < window
}

// PostFilter narrows ListPosts
type PostFilter struct {
	Status     string
	Category   string
	Difficulty string
	Tag        string
	Query      string
	IDs        []uuid.UUID
	Limit      int
	Offset     int
}

// List limits
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// UncategorizedLabel is how an empty category is presented
const UncategorizedLabel = "Uncategorized"

// AllCategories is the category filter value that matches everything
const AllCategories = "All"

func (f PostFilter) normalized() PostFilter {
	if f.Status == "" {
		f.Status = StatusPublished
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Category == AllCategories {
		f.Category = ""
	}
	return f
}
