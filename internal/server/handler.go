package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sjsage522/learningfield/internal/store"
	"sjsage522/learningfield/logger"
	"sjsage522/learningfield/services/search"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewWindow is how long a post is flagged as new after it was stored
const NewWindow = 24 * time.Hour

// Handler serves the catalog endpoints
type Handler struct {
	posts PostReader
	index search.Index
	now   func() time.Time
}

// NewHandler creates a handler
func NewHandler(posts PostReader, index search.Index) *Handler {
	return &Handler{posts: posts, index: index, now: time.Now}
}

type postResponse struct {
	store.PostWithSource
	IsNew bool `json:"is_new"`
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ListPosts returns published posts matching the query parameters
func (h *Handler) ListPosts(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	filter := store.PostFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Tag:        c.Query("tag"),
		Query:      c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	}

	var (
		posts []store.PostWithSource
		err   error
	)
	if filter.Query != "" && h.index.Enabled() {
		posts, err = h.searchPosts(c, filter)
	} else {
		posts, err = h.posts.ListPosts(c.Request.Context(), filter)
	}
	if err != nil {
		logger.ForServer().Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}

	now := h.now()
	resp := make([]postResponse, len(posts))
	for i := range posts {
		resp[i] = postResponse{PostWithSource: posts[i], IsNew: posts[i].IsNew(now, NewWindow)}
	}

	c.JSON(http.StatusOK, gin.H{"posts": resp, "count": len(resp)})
}

// searchPosts resolves the query through the search index and loads the
// matching rows in relevance order
func (h *Handler) searchPosts(c *gin.Context, filter store.PostFilter) ([]store.PostWithSource, error) {
	ids, err := h.index.Search(c.Request.Context(), filter.Query, search.Filter{
		Status:     store.StatusPublished,
		Category:   filter.Category,
		Difficulty: filter.Difficulty,
		Tag:        filter.Tag,
		Limit:      clampLimit(filter.Limit),
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []store.PostWithSource{}, nil
	}

	rows, err := h.posts.ListPosts(c.Request.Context(), store.PostFilter{IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]store.PostWithSource, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	ordered := make([]store.PostWithSource, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return store.DefaultLimit
	}
	return min(limit, store.MaxLimit)
}

// Categories lists the filter options, always starting with "All"
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.posts.Categories(c.Request.Context())
	if err != nil {
		logger.ForServer().Error().Err(err).Msg("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": append([]string{store.AllCategories}, categories...)})
}

// Like increments the like counter of a post
func (h *Handler) Like(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	count, err := h.posts.IncrementLike(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		logger.ForServer().Error().Err(err).Str("id", id.String()).Msg("Failed to increment like")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "like_count": count})
}
