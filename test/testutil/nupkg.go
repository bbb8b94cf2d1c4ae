package testutil

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// NupkgEntry is one file inside a test package archive.
type NupkgEntry struct {
	Name string
	Data []byte
}

// BuildNupkg returns an in-memory nupkg (ZIP) archive containing the given
// entries in order.
func BuildNupkg(t *testing.T, entries ...NupkgEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		f, err := zw.Create(entry.Name)
		require.NoError(t, err)
		_, err = f.Write(entry.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// NavxArtifact returns bytes that look like a compiled extension artifact,
// padded out to the requested size.
func NavxArtifact(size int) []byte {
	if size < 4 {
		size = 4
	}
	b := make([]byte, size)
	copy(b, "NAVX")
	for i := 4; i < size; i++ {
		b[i] = byte('a' + i%26)
	}
	return b
}
