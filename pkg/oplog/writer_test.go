package oplog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterPersistsReport(t *testing.T) {
	dir := t.TempDir()
	l := fixedLog()

	path, err := NewWriter(dir).Write(l)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, Filename(l.Kind, l.StartedAt)), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(l), string(content))
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	path, err := NewWriter(dir).Write(fixedLog())
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWriterDefaultsDir(t *testing.T) {
	w := NewWriter("")
	assert.Equal(t, DefaultDir, w.dir)
}
