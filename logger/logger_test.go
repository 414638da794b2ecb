package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	var buf bytes.Buffer
	InitWithWriter(&buf)
	buf.Reset()

	ForAnalyzer("gemini").Info().Str("url", "https://example.com").Msg("analyzed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "analyzer", entry["component"])
	assert.Equal(t, "gemini", entry["backend"])
	assert.Equal(t, "https://example.com", entry["url"])
	assert.Equal(t, "analyzed", entry["message"])
	assert.True(t, IsDebugEnabled())
}

func TestLogError(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	InitWithWriter(&buf)
	buf.Reset()

	LogError("store", errors.New("connection refused"), "insert %s", "abc")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "insert abc", entry["message"])
	assert.False(t, IsDebugEnabled())
}
