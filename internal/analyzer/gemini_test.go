package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

const geminiTestModel = "gemini-2.0-flash-exp"

func geminiServer(t *testing.T, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/"+geminiTestModel+":generateContent", r.URL.Path)

		req, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(req), "RAG tips")
		assert.Contains(t, string(req), "application/json")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func newTestGemini(t *testing.T, server *httptest.Server) *Gemini {
	t.Helper()
	g, err := NewGemini(context.Background(), "test-key", geminiTestModel, option.WithEndpoint(server.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGeminiAnalyze(t *testing.T) {
	text := "```json\n" + `{"is_tech_related":true,"category":"AI","difficulty":"Intermediate",` +
		`"tags":["LLM","RAG","Go","Vector DB"],"is_paywalled":false,"summary":"- **Theme**: RAG"}` + "\n```"
	part, err := json.Marshal(text)
	require.NoError(t, err)

	server := geminiServer(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":`+string(part)+`}]},"finishReason":"STOP"}]}`)
	defer server.Close()

	g := newTestGemini(t, server)
	assert.Equal(t, "gemini", g.Name())

	a, err := g.Analyze(context.Background(), "RAG tips", "")
	require.NoError(t, err)
	assert.True(t, a.IsTechRelated)
	assert.Equal(t, "AI", a.Category)
	assert.Equal(t, "Intermediate", a.Difficulty)
	assert.Equal(t, []string{"LLM", "RAG", "Go"}, a.Tags)
	assert.Equal(t, "- **Theme**: RAG", a.Summary)
}

func TestGeminiAnalyzeNoCandidates(t *testing.T) {
	server := geminiServer(t, `{"candidates":[]}`)
	defer server.Close()

	a, err := newTestGemini(t, server).Analyze(context.Background(), "RAG tips", "https://zenn.dev/a")
	assert.Nil(t, a)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAnalysis))
}
