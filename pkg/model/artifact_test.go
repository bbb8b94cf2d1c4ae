package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExtensionArtifact(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{
			name:    "navx prefixed content",
			content: append([]byte("NAVX"), make([]byte, 128)...),
			want:    true,
		},
		{
			name:    "zip content",
			content: []byte("PK\x03\x04 rest of archive"),
			want:    false,
		},
		{
			name:    "plain text placeholder",
			content: []byte("This is a placeholder file."),
			want:    false,
		},
		{
			name:    "short content",
			content: []byte("NA"),
			want:    false,
		},
		{
			name:    "empty content",
			content: nil,
			want:    false,
		},
		{
			name:    "lowercase magic",
			content: []byte("navx...."),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExtensionArtifact(bytes.NewReader(tt.content)))
		})
	}
}

func TestIsExtensionArtifactFile(t *testing.T) {
	dir := t.TempDir()

	appFile := filepath.Join(dir, "real.app")
	require.NoError(t, os.WriteFile(appFile, append([]byte("NAVX"), make([]byte, 64)...), 0o644))

	textFile := filepath.Join(dir, "placeholder.app")
	require.NoError(t, os.WriteFile(textFile, []byte("not signed material"), 0o644))

	ok, err := IsExtensionArtifactFile(appFile)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = IsExtensionArtifactFile(textFile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = IsExtensionArtifactFile(filepath.Join(dir, "missing.app"))
	assert.Error(t, err)
}
