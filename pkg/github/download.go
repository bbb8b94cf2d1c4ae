package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/lincza/albuild/internal/logger"
	"github.com/lincza/albuild/pkg/auth"
	"github.com/lincza/albuild/pkg/download"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/fsutil"
	"github.com/lincza/albuild/pkg/model"
	"github.com/lincza/albuild/pkg/nupkg"
)

// download walks the fixed authentication ladder against the registry's
// content URL. A 401 or 403 from any scheme ends the ladder immediately;
// every other failure moves on to the next scheme. Exhausting the ladder
// produces a placeholder instead of an error.
func (r *Resolver) download(ctx context.Context, dep model.Dependency, pkgName, version, token string) (*Resolution, error) {
	u, err := registryDownloadURL(r.options.RegistryBaseURL, r.options.Org, pkgName, version)
	if err != nil {
		return nil, err
	}

	schemes := auth.GitHubLadder(token, r.options.Usernames)
	attempts := 0
	for _, scheme := range schemes {
		attempts++
		logger.DebugfWithFields(logger.Fields{
			"package": pkgName,
			"version": version,
			"scheme":  string(scheme.Type()),
			"attempt": attempts,
		}, "Trying registry download")

		item := download.Item{URL: u, Filename: registryCacheFilename(pkgName, version), Auth: scheme}
		archivePath, err := r.downloader.Fetch(ctx, item, download.Options{Dir: r.options.CacheDir})
		if err != nil {
			if errors.Is(err, pkgerrors.ErrAuthenticationRequired) {
				logger.WarnfWithFields(logger.Fields{"package": pkgName}, "Registry rejected the token")
				return r.placeholder(dep, pkgName, attempts, ReasonAuthenticationRequired)
			}
			continue
		}

		artifact, err := r.extractFirst(ctx, archivePath, dep, pkgName)
		if err != nil {
			logger.WarnfWithFields(logger.Fields{"package": pkgName}, "Downloaded archive unusable: %v", err)
			return r.placeholder(dep, pkgName, attempts, ReasonDownloadFailed)
		}
		return &Resolution{
			Artifact:    *artifact,
			PackageName: pkgName,
			Version:     version,
			Attempts:    attempts,
		}, nil
	}
	return r.placeholder(dep, pkgName, attempts, ReasonDownloadFailed)
}

// registryDownloadURL builds the NuGet content URL of the GitHub package
// registry. Package name and version are lowercased and path-escaped.
func registryDownloadURL(baseURL, org, pkgName, version string) (*url.URL, error) {
	name := url.PathEscape(strings.ToLower(pkgName))
	ver := url.PathEscape(strings.ToLower(version))
	raw := fmt.Sprintf("%s/%s/download/%s/%s/%s.%s.nupkg", baseURL, org, name, ver, name, ver)

	u, err := url.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "invalid registry URL %s: %v", raw, err)
	}
	return u, nil
}

func registryCacheFilename(pkgName, version string) string {
	return fmt.Sprintf("%s.%s.github.nupkg", strings.ToLower(pkgName), strings.ToLower(version))
}

// extractFirst pulls the first artifact entry out of the archive and writes
// it under the dependency's deterministic fallback filename. An existing file
// above the stub-size threshold is never rewritten.
func (r *Resolver) extractFirst(ctx context.Context, archivePath string, dep model.Dependency, pkgName string) (*model.ArtifactFile, error) {
	dest := filepath.Join(r.options.SymbolDir, ArtifactFilename(dep))
	if fsutil.FileSizeAbove(dest, r.options.MinSize) {
		logger.DebugfWithFields(logger.Fields{"file": ArtifactFilename(dep)}, "Artifact already present, keeping existing file")
		info, err := os.Stat(dest)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to stat existing artifact")
		}
		return &model.ArtifactFile{
			Name:   ArtifactFilename(dep),
			Path:   dest,
			Size:   info.Size(),
			Source: "existing",
		}, nil
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to open %s: %v", archivePath, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	entry, err := firstArtifactEntry(fsys)
	if err != nil {
		return nil, err
	}

	if err := fsutil.EnsureDir(r.options.SymbolDir); err != nil {
		return nil, err
	}

	src, err := fsys.Open(entry)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to open entry %s: %v", entry, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := fsutil.CreateFilePerm(dest, fsutil.FileModeDefault)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create artifact file")
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to extract %s", entry)
	}

	logger.DebugfWithFields(logger.Fields{"file": dest, "bytes": written}, "Extracted fallback artifact")
	return &model.ArtifactFile{
		Name:   ArtifactFilename(dep),
		Path:   dest,
		Size:   written,
		Source: fmt.Sprintf("%s from GitHub package %s", entry, pkgName),
	}, nil
}

func firstArtifactEntry(fsys fs.FS) (string, error) {
	var first string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, nupkg.ArtifactExt) {
			return nil
		}
		first = path
		return fs.SkipAll
	})
	if err != nil {
		return "", pkgerrors.Wrapf(pkgerrors.ErrCorruptArchive, "failed to read archive: %v", err)
	}
	if first == "" {
		return "", pkgerrors.Wrapf(pkgerrors.ErrNoArtifactInPackage, "no %s entry in the registry package", nupkg.ArtifactExt)
	}
	return first, nil
}
