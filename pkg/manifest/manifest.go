// Package manifest reads and validates an AL project's app.json.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
)

// Filename is the manifest file every AL project carries at its root.
const Filename = "app.json"

// IDRange is one object-ID range declared by the project.
type IDRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Manifest is the parsed app.json of an AL extension project.
type Manifest struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Publisher    string             `json:"publisher"`
	Version      string             `json:"version"`
	Brief        string             `json:"brief,omitempty"`
	Description  string             `json:"description,omitempty"`
	Application  string             `json:"application,omitempty"`
	Platform     string             `json:"platform,omitempty"`
	Runtime      string             `json:"runtime,omitempty"`
	Target       string             `json:"target,omitempty"`
	IDRanges     []IDRange          `json:"idRanges,omitempty"`
	Dependencies []model.Dependency `json:"dependencies,omitempty"`
}

// Load reads and parses the app.json in dir. A present but unparseable
// manifest fails with ErrManifestInvalid; an absent one with
// ErrManifestMissing.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, Filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrManifestMissing, "no %s in %s", Filename, dir)
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return Parse(data)
}

// Parse parses manifest JSON bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(errors.ErrManifestInvalid, "failed to parse %s: %v", Filename, err)
	}
	return &m, nil
}

// Save writes the manifest back as indented JSON, matching the formatting the
// AL tooling itself produces.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// PlatformVersion returns the version string driving symbol selection: the
// application version when present, otherwise the platform version, otherwise
// the given default.
func (m *Manifest) PlatformVersion(fallback string) string {
	if m.Application != "" {
		return m.Application
	}
	if m.Platform != "" {
		return m.Platform
	}
	return fallback
}

// CleanName returns the project name reduced to alphanumerics, the form used
// in output artifact filenames.
func (m *Manifest) CleanName() string {
	var b strings.Builder
	for _, r := range m.Name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
