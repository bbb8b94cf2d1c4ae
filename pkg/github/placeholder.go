package github

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
)

// Reasons recorded on placeholder resolutions. Callers branch on these
// instead of parsing the placeholder file content.
const (
	ReasonAuthenticationRequired = "authentication required"
	ReasonDownloadFailed         = "download failed"
)

var filenameSanitizer = strings.NewReplacer(" ", "_", "(", "", ")", "", ".", "_")

// ArtifactFilename returns the deterministic fallback artifact name for a
// dependency, with spaces, parentheses and dots sanitized out.
func ArtifactFilename(dep model.Dependency) string {
	return filenameSanitizer.Replace(dep.Publisher) + "_" + filenameSanitizer.Replace(dep.Name) + "_github.app"
}

// PlaceholderFilename returns the name of the stand-in artifact written when
// the real package cannot be downloaded.
func PlaceholderFilename(dep model.Dependency) string {
	return filenameSanitizer.Replace(dep.Publisher) + "_" + filenameSanitizer.Replace(dep.Name) + "_github_placeholder.app"
}

// placeholder writes a plain-text stand-in artifact so later build steps have
// a file to reference, and the file itself explains the manual fix. A real
// artifact already on disk above the stub threshold is never replaced by a
// placeholder.
func (r *Resolver) placeholder(dep model.Dependency, pkgName string, attempts int, reason string) (*Resolution, error) {
	name := PlaceholderFilename(dep)
	dest := filepath.Join(r.options.SymbolDir, name)

	if !fsutil.FileSizeAbove(dest, r.options.MinSize) {
		if err := fsutil.EnsureDir(r.options.SymbolDir); err != nil {
			return nil, err
		}
		content := placeholderContent(dep, pkgName, r.options.Org, reason)
		if err := os.WriteFile(dest, content, fsutil.FileModeDefault); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to write placeholder")
		}
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to stat placeholder")
	}

	logger.WarnfWithFields(logger.Fields{
		"file":   name,
		"reason": reason,
	}, "Created placeholder for %s", pkgName)

	return &Resolution{
		Artifact: model.ArtifactFile{
			Name:        name,
			Path:        dest,
			Size:        info.Size(),
			Placeholder: true,
			Source:      fmt.Sprintf("placeholder for GitHub package %s (%s)", pkgName, reason),
		},
		PackageName: pkgName,
		Attempts:    attempts,
		Placeholder: true,
		Reason:      reason,
	}, nil
}

func placeholderContent(dep model.Dependency, pkgName, org, reason string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "// Package: %s\n", pkgName)
	fmt.Fprintf(&b, "// Publisher: %s\n", dep.Publisher)
	fmt.Fprintf(&b, "// Name: %s\n", dep.Name)
	fmt.Fprintf(&b, "// Status: %s\n", reason)
	fmt.Fprintf(&b, "// Found in the %s GitHub package registry.\n", org)
	b.WriteString("//\n")
	b.WriteString("// This file stands in for a private package that could not be downloaded.\n")
	b.WriteString("// To fetch the real symbols:\n")
	b.WriteString("//\n")
	b.WriteString("//   1. Create a GitHub personal access token with the read:packages scope.\n")
	b.WriteString("//   2. Re-run symbol resolution with the token:\n")
	b.WriteString("//        albuild symbols --token YOUR_TOKEN\n")
	b.WriteString("//   3. Or download the .app file manually and place it in the symbol directory.\n")
	return []byte(b.String())
}
