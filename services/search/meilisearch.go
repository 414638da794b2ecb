package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sjsage522/learningfield/internal/store"
	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

var (
	filterableAttributes = []string{"category", "difficulty", "tags", "status"}
	sortableAttributes   = []string{"posted_at", "like_count"}
)

type postDoc struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	URL        string   `json:"url"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
	LikeCount  int      `json:"like_count"`
	PostedAt   int64    `json:"posted_at"`
}

// MeiliIndex indexes posts in Meilisearch
type MeiliIndex struct {
	client meilisearch.ServiceManager
	index  string
}

// NewMeiliIndex connects to a Meilisearch host
func NewMeiliIndex(host, apiKey string) *MeiliIndex {
	return &MeiliIndex{
		client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		index:  IndexName,
	}
}

// Init configures filterable and sortable attributes
func (m *MeiliIndex) Init() error {
	filterable := make([]any, len(filterableAttributes))
	for i, v := range filterableAttributes {
		filterable[i] = v
	}
	if _, err := m.client.Index(m.index).UpdateFilterableAttributes(&filterable); err != nil {
		return apperrors.NewSearch("init", "failed to update filterable attributes", err)
	}

	sortable := append([]string(nil), sortableAttributes...)
	if _, err := m.client.Index(m.index).UpdateSortableAttributes(&sortable); err != nil {
		return apperrors.NewSearch("init", "failed to update sortable attributes", err)
	}

	logger.ForSearch().Info().Str("index", m.index).Msg("Meilisearch index initialized")
	return nil
}

// Enabled reports true
func (m *MeiliIndex) Enabled() bool { return true }

// IndexPost adds or replaces the post's document
func (m *MeiliIndex) IndexPost(ctx context.Context, post *store.Post) error {
	doc := postDoc{
		ID:         post.ID.String(),
		ExternalID: post.ExternalID,
		Title:      post.Title,
		Content:    post.Content,
		Summary:    post.Summary,
		URL:        post.URL,
		Category:   post.Category,
		Difficulty: post.Difficulty,
		Tags:       []string(post.Tags),
		Status:     post.Status,
		LikeCount:  post.LikeCount,
		PostedAt:   post.PostedAt.Unix(),
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	primaryKey := "id"
	task, err := m.client.Index(m.index).AddDocumentsWithContext(ctx, []postDoc{doc}, &primaryKey)
	if err != nil {
		return apperrors.NewSearch("index", "failed to index post "+doc.ID, err)
	}

	logger.ForSearch().Debug().
		Str("id", doc.ID).
		Int64("task_uid", task.TaskUID).
		Msg("Indexed post")
	return nil
}

// Search returns the ids of matching posts in relevance order
func (m *MeiliIndex) Search(ctx context.Context, query string, filter Filter) ([]uuid.UUID, error) {
	req := &meilisearch.SearchRequest{
		AttributesToRetrieve: []string{"id"},
		Limit:                int64(filter.Limit),
		Offset:               int64(filter.Offset),
	}
	if expr := buildFilter(filter); expr != "" {
		req.Filter = expr
	}

	raw, err := m.client.Index(m.index).SearchRawWithContext(ctx, query, req)
	if err != nil {
		return nil, apperrors.NewSearch("search", "search request failed", err)
	}

	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, apperrors.NewSearch("search", "failed to decode search response", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

// buildFilter renders a Meilisearch filter expression
func buildFilter(f Filter) string {
	var parts []string
	add := func(attr, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s = %s", attr, quote(value)))
		}
	}
	add("status", f.Status)
	switch f.Category {
	case store.AllCategories:
	case store.UncategorizedLabel:
		// empty categories are indexed as-is
		parts = append(parts, fmt.Sprintf(`(category = %s OR category = "")`, quote(store.UncategorizedLabel)))
	default:
		add("category", f.Category)
	}
	add("difficulty", f.Difficulty)
	add("tags", f.Tag)
	return strings.Join(parts, " AND ")
}
