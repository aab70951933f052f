package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSuffix(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"speech.mp3", ".mp3"},
		{"archive.tar.gz", ".gz"},
		{"noext", DefaultSuffix},
		{"", DefaultSuffix},
		{"dir/clip.m4a", ".m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, UploadSuffix(tt.filename))
		})
	}
}

func TestStageUpload(t *testing.T) {
	dir := t.TempDir()

	path, err := StageUpload(strings.NewReader("RIFF data"), "clip.wav", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, ".wav", filepath.Ext(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF data", string(content))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStageUpload_ReadErrorLeavesNothing(t *testing.T) {
	dir := t.TempDir()

	_, err := StageUpload(failingReader{}, "clip.wav", dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, Exists(path))
	assert.NoError(t, RemoveIfExists(path))
	assert.False(t, Exists(path))
	assert.NoError(t, RemoveIfExists(path))
	assert.NoError(t, RemoveIfExists(""))
}
