package model

import (
	"bytes"
	"io"
	"os"
)

// navxMagic is the four byte prefix of every compiled AL extension package.
var navxMagic = []byte("NAVX")

// ArtifactFile describes one file written to the symbol directory.
type ArtifactFile struct {
	Name        string
	Path        string
	Size        int64
	Placeholder bool
	// Source records provenance: the feed name, "github" with the archive
	// entry it was extracted from, or the placeholder reason.
	Source string
}

// IsExtensionArtifact reports whether the reader starts with the NAVX magic
// bytes of a compiled AL extension.
func IsExtensionArtifact(r io.Reader) bool {
	header := make([]byte, len(navxMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return false
	}
	return bytes.Equal(header, navxMagic)
}

// IsExtensionArtifactFile reports whether the file at path is a compiled AL
// extension. The error is non-nil only when the file cannot be opened.
func IsExtensionArtifactFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return IsExtensionArtifact(f), nil
}
