package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listColumns = []string{
	"id", "external_id", "source_id", "content", "title", "url", "category",
	"difficulty", "tags", "is_paywalled", "summary", "posted_at",
	"is_tech_related", "status", "like_count", "created_at", "source.username",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestExistsByExternalID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM analyzed_posts WHERE external_id = \$1\)`).
		WithArgs("1234").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.ExistsByExternalID(context.Background(), "1234")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByExternalIDError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("connection reset"))

	_, err := s.ExistsByExternalID(context.Background(), "1234")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestUpsertSource(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO learning_sources .* ON CONFLICT \(username\) DO UPDATE`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at"}).AddRow(id.String(), "alice", created))

	src, err := s.UpsertSource(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, src.ID)
	assert.Equal(t, "alice", src.Username)
	assert.Equal(t, created, src.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPost(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	created := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO analyzed_posts`).
		WithArgs("1234", sqlmock.AnyArg(), "text", "title", "https://zenn.dev/a", "AI", "Beginner",
			sqlmock.AnyArg(), false, "summary", sqlmock.AnyArg(), true, StatusPublished).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), created))

	post := &Post{
		ExternalID:    "1234",
		SourceID:      uuid.New(),
		Content:       "text",
		Title:         "title",
		URL:           "https://zenn.dev/a",
		Category:      "AI",
		Difficulty:    "Beginner",
		Tags:          pq.StringArray{"LLM"},
		Summary:       "summary",
		PostedAt:      created,
		IsTechRelated: true,
		Status:        StatusPublished,
	}
	require.NoError(t, s.InsertPost(context.Background(), post))
	assert.Equal(t, id, post.ID)
	assert.Equal(t, created, post.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPostDuplicate(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	logger.InitWithWriter(&buf)
	t.Cleanup(func() { logger.InitWithWriter(os.Stderr) })

	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO analyzed_posts`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.InsertPost(context.Background(), &Post{ExternalID: "1234", Status: StatusPublished})
	assert.ErrorIs(t, err, ErrDuplicate)

	out := buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, `"external_id":"1234"`)
	assert.Contains(t, out, `"message":"Post already stored"`)
	assert.Contains(t, out, "duplicate key value")
}

func TestListPosts(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	posted := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(listColumns).AddRow(
		id.String(), "1234", uuid.New().String(), "text", "RAG", "https://zenn.dev/a", "AI",
		"Advanced", "{LLM,RAG}", false, "- **Theme**: RAG", posted,
		true, StatusPublished, 3, posted, "alice",
	)

	mock.ExpectQuery(`FROM analyzed_posts p\s+LEFT JOIN learning_sources s ON s.id = p.source_id\s+WHERE p.status = \$1 AND p.category = \$2 AND \$3 = ANY\(p.tags\)\s+ORDER BY p.posted_at DESC\s+LIMIT \$4 OFFSET \$5`).
		WithArgs(StatusPublished, "AI", "RAG", DefaultLimit, 0).
		WillReturnRows(rows)

	posts, err := s.ListPosts(context.Background(), PostFilter{Category: "AI", Tag: "RAG"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, id, posts[0].ID)
	assert.Equal(t, pq.StringArray{"LLM", "RAG"}, posts[0].Tags)
	assert.Equal(t, "alice", posts[0].Source.Username)
	assert.Equal(t, 3, posts[0].LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM analyzed_posts`).
		WithArgs(StatusPendingReview, MaxLimit, 10).
		WillReturnRows(sqlmock.NewRows(listColumns))

	posts, err := s.ListPosts(context.Background(), PostFilter{Status: StatusPendingReview, Category: AllCategories, Limit: 1000, Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildListQuery(t *testing.T) {
	query, args := buildListQuery(PostFilter{
		Category:   UncategorizedLabel,
		Difficulty: "Beginner",
		Query:      " rag ",
		IDs:        []uuid.UUID{uuid.Nil},
	}.normalized())

	assert.Contains(t, query, "(p.category IS NULL OR p.category = '' OR p.category = $2)")
	assert.Contains(t, query, "p.difficulty = $3")
	assert.Contains(t, query, "(p.title ILIKE $4 OR p.content ILIKE $4 OR p.summary ILIKE $4)")
	assert.Contains(t, query, "p.id = ANY($5::uuid[])")
	assert.Contains(t, query, "LIMIT $6 OFFSET $7")
	require.Len(t, args, 7)
	assert.Equal(t, StatusPublished, args[0])
	assert.Equal(t, "%rag%", args[3])
	assert.Equal(t, pq.StringArray{uuid.Nil.String()}, args[4])
}

func TestCategories(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT DISTINCT COALESCE\(NULLIF\(category, ''\), \$2\)`).
		WithArgs(StatusPublished, UncategorizedLabel).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("AI").AddRow("Uncategorized").AddRow("Web Dev"))

	categories, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Uncategorized", "Web Dev"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementLike(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE analyzed_posts\s+SET like_count = COALESCE\(like_count, 0\) \+ 1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"like_count"}).AddRow(8))

	count, err := s.IncrementLike(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	mock.ExpectQuery(`UPDATE analyzed_posts`).WillReturnError(sql.ErrNoRows)
	_, err = s.IncrementLike(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE p.id = \$1`).WillReturnRows(sqlmock.NewRows(listColumns))

	_, err := s.GetPost(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsNew(t *testing.T) {
	now := time.Now()
	p := PostWithSource{Post: Post{CreatedAt: now.Add(-time.Hour)}}
	assert.True(t, p.IsNew(now, 24*time.Hour))

	p.CreatedAt = now.Add(-25 * time.Hour)
	assert.False(t, p.IsNew(now, 24*time.Hour))
}
