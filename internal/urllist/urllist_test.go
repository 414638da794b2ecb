package urllist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"  https://x.com/alice/status/123  ",
		"",
		"# notes are ignored",
		"ftp://example.com/file",
		"https://zenn.dev/bob/articles/rag",
		"https://x.com/alice/status/123",
		"\thttp://example.com/plain\r",
	}, "\n")

	urls, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://x.com/alice/status/123",
		"https://zenn.dev/bob/articles/rag",
		"http://example.com/plain",
	}, urls)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "urls.txt"))
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://qiita.com/a/items/1\n\n"), 0o644))

	urls, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://qiita.com/a/items/1"}, urls)

	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o644))
	urls, err = Read(path)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
