package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	result *Analysis
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text, linkedURL string) (*Analysis, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeAnalyzer) Name() string { return "fake" }

func TestClassifierWithoutBackend(t *testing.T) {
	c := NewClassifier(nil)
	a, err := c.Classify(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Equal(t, NoKeyAnalysis(), a)
	assert.True(t, a.IsTechRelated)
	assert.Equal(t, "none", c.Backend())
	assert.NoError(t, c.Close())
}

func TestClassifierBackendFailure(t *testing.T) {
	backend := &fakeAnalyzer{err: errors.New("connection refused")}
	c := NewClassifier(backend)

	a, err := c.Classify(context.Background(), "text", "")
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, backend.calls)
}

func TestClassifierSuccess(t *testing.T) {
	want := &Analysis{IsTechRelated: true, Category: "Web Dev", Tags: []string{"Go"}}
	c := NewClassifier(&fakeAnalyzer{result: want})

	got, err := c.Classify(context.Background(), "text", "https://go.dev")
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, "fake", c.Backend())
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(context.Background(), Options{LMStudioBaseURL: "http://localhost:1234", GeminiAPIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, "lmstudio", c.Backend())

	c, err = New(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "none", c.Backend())
}
