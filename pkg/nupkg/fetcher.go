// Package nupkg downloads located feed packages and extracts the extension
// artifacts they embed.
package nupkg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/download"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
)

// ArtifactExt is the archive entry suffix identifying extension artifacts.
const ArtifactExt = ".app"

// zipMagic is the local-file-header signature of a ZIP archive.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Options control where packages are cached and artifacts are written.
type Options struct {
	CacheDir  string // nupkg download cache, absolute
	SymbolDir string // artifact output directory, absolute
	MinSize   int64  // files at or below this size count as stubs and may be replaced
}

// ExtractResult describes what one package fetch produced on disk.
type ExtractResult struct {
	Artifacts []model.ArtifactFile // entries written this run
	Skipped   []string             // entries left alone because a real file already existed
	TotalSize int64                // bytes written this run
}

// Fetcher materializes located packages into local artifact files.
type Fetcher struct {
	downloader download.Manager
	options    Options
}

// NewFetcher creates a fetcher that downloads through the given manager.
func NewFetcher(downloader download.Manager, opts Options) *Fetcher {
	return &Fetcher{downloader: downloader, options: opts}
}

// DownloadURL returns the package content URL for a located package. Both the
// package id and the version are lowercased in the path.
func DownloadURL(pkg *model.CandidatePackage) (*url.URL, error) {
	if pkg.Feed == nil || pkg.Feed.PackageBaseURL == "" {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "package %s has no resolved content endpoint", pkg.ID)
	}
	id := strings.ToLower(pkg.ID)
	version := strings.ToLower(pkg.Version)
	raw := fmt.Sprintf("%s/%s/%s/%s.%s.nupkg", pkg.Feed.PackageBaseURL, id, version, id, version)

	u, err := url.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "invalid download URL %s: %v", raw, err)
	}
	return u, nil
}

// CacheFilename returns the deterministic local name for a package archive so
// repeat fetches reuse the cached copy.
func CacheFilename(pkg *model.CandidatePackage) string {
	return fmt.Sprintf("%s.%s.nupkg", strings.ToLower(pkg.ID), strings.ToLower(pkg.Version))
}

// Fetch downloads the package archive and extracts every artifact entry into
// the symbol directory. The source label ends up on each extracted artifact.
func (f *Fetcher) Fetch(ctx context.Context, pkg *model.CandidatePackage, source string) (*ExtractResult, error) {
	u, err := DownloadURL(pkg)
	if err != nil {
		return nil, err
	}

	item := download.Item{URL: u, Filename: CacheFilename(pkg)}
	archivePath, err := f.downloader.Fetch(ctx, item, download.Options{Dir: f.options.CacheDir})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to download %s v%s", pkg.ID, pkg.Version)
	}

	logger.DebugfWithFields(logger.Fields{
		"package": pkg.ID,
		"version": pkg.Version,
		"archive": archivePath,
	}, "Package archive ready")

	return f.Extract(ctx, archivePath, source)
}

// Extract pulls every artifact entry out of the archive into the symbol
// directory. Entries whose target file already exists above the stub-size
// threshold are skipped, not overwritten.
func (f *Fetcher) Extract(ctx context.Context, archivePath, source string) (*ExtractResult, error) {
	if err := checkZipMagic(archivePath); err != nil {
		return nil, err
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to open %s: %v", archivePath, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(f.options.SymbolDir); err != nil {
		return nil, err
	}

	result := &ExtractResult{}
	matched := 0
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ArtifactExt) {
			return nil
		}
		matched++
		return f.extractEntry(fsys, path, source, result)
	}
	if err := fs.WalkDir(fsys, ".", walkFn); err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to read %s: %v", archivePath, err)
	}

	if matched == 0 {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNoArtifactInPackage, "%s has no %s entries", filepath.Base(archivePath), ArtifactExt)
	}
	return result, nil
}

func (f *Fetcher) extractEntry(fsys fs.FS, path, source string, result *ExtractResult) error {
	base := filepath.Base(path)
	dest := filepath.Join(f.options.SymbolDir, base)

	if fsutil.FileSizeAbove(dest, f.options.MinSize) {
		logger.DebugfWithFields(logger.Fields{"file": base}, "Artifact already present, keeping existing file")
		result.Skipped = append(result.Skipped, base)
		return nil
	}

	src, err := fsys.Open(path)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to open entry %s: %v", path, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := fsutil.CreateFilePerm(dest, fsutil.FileModeDefault)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create artifact file")
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to extract %s", path)
	}

	result.Artifacts = append(result.Artifacts, model.ArtifactFile{
		Name:   base,
		Path:   dest,
		Size:   written,
		Source: source,
	})
	result.TotalSize += written
	logger.DebugfWithFields(logger.Fields{"file": base, "bytes": written}, "Extracted artifact")
	return nil
}

// checkZipMagic rejects payloads that are not ZIP archives before any entry
// handling happens. Feeds answer some bad requests with HTML bodies.
func checkZipMagic(archivePath string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to open %s: %v", archivePath, err)
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "%s is too short to be a package archive", filepath.Base(archivePath))
	}
	if !bytes.Equal(header, zipMagic) {
		return pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "%s is not a ZIP archive", filepath.Base(archivePath))
	}
	return nil
}
