package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postColumns = `
	p.id, p.external_id, p.source_id,
	COALESCE(p.content, '') AS content,
	COALESCE(p.title, '') AS title,
	COALESCE(p.url, '') AS url,
	COALESCE(p.category, '') AS category,
	COALESCE(p.difficulty, '') AS difficulty,
	COALESCE(p.tags, '{}') AS tags,
	COALESCE(p.is_paywalled, false) AS is_paywalled,
	COALESCE(p.summary, '') AS summary,
	p.posted_at,
	COALESCE(p.is_tech_related, true) AS is_tech_related,
	p.status,
	COALESCE(p.like_count, 0) AS like_count,
	p.created_at,
	COALESCE(s.username, '') AS "source.username"`

// ExistsByExternalID reports whether a post with the external id is stored
func (s *Store) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM analyzed_posts WHERE external_id = $1)`, externalID)
	if err != nil {
		return false, apperrors.NewStorage("exists", "failed to check external id", err)
	}
	return exists, nil
}

// UpsertSource returns the source for username, creating it if needed
func (s *Store) UpsertSource(ctx context.Context, username string) (*Source, error) {
	var src Source
	query := `
		INSERT INTO learning_sources (username)
		VALUES ($1)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, username, created_at
	`
	if err := s.db.GetContext(ctx, &src, query, username); err != nil {
		return nil, apperrors.NewStorage("upsert_source", "failed to upsert source "+username, err)
	}
	return &src, nil
}

// InsertPost stores a post and fills in its generated id and created_at
func (s *Store) InsertPost(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO analyzed_posts (
			external_id, source_id, content, title, url, category, difficulty,
			tags, is_paywalled, summary, posted_at, is_tech_related, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	tags := post.Tags
	if tags == nil {
		tags = pq.StringArray{}
	}

	err := s.db.QueryRowContext(ctx, query,
		post.ExternalID,
		post.SourceID,
		post.Content,
		post.Title,
		post.URL,
		post.Category,
		post.Difficulty,
		tags,
		post.IsPaywalled,
		post.Summary,
		post.PostedAt,
		post.IsTechRelated,
		post.Status,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			logger.ForStore().WithError(err).Debug().Str("external_id", post.ExternalID).Msg("Post already stored")
			return ErrDuplicate
		}
		return apperrors.NewStorage("insert_post", "failed to insert post "+post.ExternalID, err)
	}
	return nil
}

// GetPost returns one post by id
func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*PostWithSource, error) {
	var post PostWithSource
	query := `SELECT ` + postColumns + `
		FROM analyzed_posts p
		LEFT JOIN learning_sources s ON s.id = p.source_id
		WHERE p.id = $1`

	if err := s.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.NewStorage("get_post", "failed to get post", err)
	}
	return &post, nil
}

// buildListQuery renders the WHERE clause and arguments for a normalized filter
func buildListQuery(f PostFilter) (string, []any) {
	conds := []string{"p.status = $1"}
	args := []any{f.Status}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch f.Category {
	case "":
	case UncategorizedLabel:
		conds = append(conds, "(p.category IS NULL OR p.category = '' OR p.category = "+next(UncategorizedLabel)+")")
	default:
		conds = append(conds, "p.category = "+next(f.Category))
	}
	if f.Difficulty != "" {
		conds = append(conds, "p.difficulty = "+next(f.Difficulty))
	}
	if f.Tag != "" {
		conds = append(conds, next(f.Tag)+" = ANY(p.tags)")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := next("%" + q + "%")
		conds = append(conds, "(p.title ILIKE "+p+" OR p.content ILIKE "+p+" OR p.summary ILIKE "+p+")")
	}
	if len(f.IDs) > 0 {
		ids := make(pq.StringArray, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = id.String()
		}
		conds = append(conds, "p.id = ANY("+next(ids)+"::uuid[])")
	}

	query := `SELECT ` + postColumns + `
		FROM analyzed_posts p
		LEFT JOIN learning_sources s ON s.id = p.source_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY p.posted_at DESC
		LIMIT ` + next(f.Limit) + ` OFFSET ` + next(f.Offset)

	return query, args
}

// ListPosts returns posts matching the filter, newest first
func (s *Store) ListPosts(ctx context.Context, filter PostFilter) ([]PostWithSource, error) {
	query, args := buildListQuery(filter.normalized())

	posts := []PostWithSource{}
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, apperrors.NewStorage("list_posts", "failed to list posts", err)
	}
	return posts, nil
}

// Categories returns the distinct categories of published posts
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT COALESCE(NULLIF(category, ''), $2) AS category
		FROM analyzed_posts
		WHERE status = $1
		ORDER BY category
	`

	categories := []string{}
	if err := s.db.SelectContext(ctx, &categories, query, StatusPublished, UncategorizedLabel); err != nil {
		return nil, apperrors.NewStorage("categories", "failed to list categories", err)
	}
	return categories, nil
}

// IncrementLike atomically adds one like and returns the new count
func (s *Store) IncrementLike(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	query := `
		UPDATE analyzed_posts
		SET like_count = COALESCE(like_count, 0) + 1
		WHERE id = $1
		RETURNING like_count
	`
	if err := s.db.GetContext(ctx, &count, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, apperrors.NewStorage("increment_like", "failed to increment like", err)
	}
	return count, nil
}
