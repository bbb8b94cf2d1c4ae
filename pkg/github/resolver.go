// Package github resolves designated-publisher dependencies from a GitHub
// Packages NuGet registry after the public symbol feeds come up empty.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lincza/albuild/pkg/auth"
	"github.com/lincza/albuild/pkg/download"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/feed"
	"github.com/lincza/albuild/pkg/model"
)

// Default endpoints for the GitHub API and its NuGet package registry.
const (
	DefaultAPIBaseURL      = "https://api.github.com"
	DefaultRegistryBaseURL = "https://nuget.pkg.github.com"
)

const acceptGitHubJSON = "application/vnd.github.v3+json"

// Options configure the fallback resolver.
type Options struct {
	Org       string   // organization whose package registry is consulted
	Keyword   string   // publisher substring gating fallback eligibility
	Usernames []string // candidate usernames for the Basic auth scheme

	APIBaseURL      string // defaults to DefaultAPIBaseURL
	RegistryBaseURL string // defaults to DefaultRegistryBaseURL

	CacheDir  string // nupkg download cache, absolute
	SymbolDir string // artifact output directory, absolute
	MinSize   int64  // files at or below this size count as stubs and may be replaced

	Timeout   time.Duration
	UserAgent string
}

// Resolution describes what one fallback attempt produced.
type Resolution struct {
	Artifact    model.ArtifactFile
	PackageName string
	Version     string
	Attempts    int // download attempts made across authentication schemes
	Placeholder bool
	Reason      string // set when a placeholder stands in for the real artifact
}

// Resolver looks dependencies up on a GitHub organization's package registry.
type Resolver struct {
	client     *http.Client
	downloader download.Manager
	options    Options
}

// NewResolver creates a fallback resolver that downloads through the given
// manager.
func NewResolver(downloader download.Manager, opts Options) *Resolver {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = DefaultAPIBaseURL
	}
	if opts.RegistryBaseURL == "" {
		opts.RegistryBaseURL = DefaultRegistryBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "albuild/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Resolver{
		client:     &http.Client{Timeout: opts.Timeout},
		downloader: downloader,
		options:    opts,
	}
}

// Applicable reports whether the dependency belongs to the fallback publisher
// group. Dependencies outside the group must never contact the registry.
func (r *Resolver) Applicable(dep model.Dependency) bool {
	if r.options.Keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(dep.Publisher), strings.ToLower(r.options.Keyword))
}

// PackageFragment returns the package-name fragment a dependency is expected
// to publish under, using the same normalization as the feed candidates.
func PackageFragment(dep model.Dependency) string {
	fragment := fmt.Sprintf("%s.%s.symbols", feed.CleanComponent(dep.Publisher), feed.CleanComponent(dep.Name))
	if dep.ID != "" {
		fragment += "." + dep.ID
	}
	return fragment
}

// Resolve locates the dependency on the registry and downloads its artifact.
// Non-matching publishers fail with ErrNotApplicable before any network call.
// A missing package fails with ErrNotFound. Download-stage failures never
// error out: they produce a placeholder resolution whose Reason says why the
// real artifact is absent.
func (r *Resolver) Resolve(ctx context.Context, dep model.Dependency, token string) (*Resolution, error) {
	if !r.Applicable(dep) {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotApplicable,
			"publisher %q does not match fallback keyword %q", dep.Publisher, r.options.Keyword)
	}

	pkg, err := r.findPackage(ctx, dep, token)
	if err != nil {
		return nil, err
	}

	version, err := r.latestVersion(ctx, pkg, token)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrAuthenticationRequired) {
			return r.placeholder(dep, pkg.Name, 0, ReasonAuthenticationRequired)
		}
		return nil, err
	}

	return r.download(ctx, dep, pkg.Name, version, token)
}

// orgPackage is one entry of the organization packages listing.
type orgPackage struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (r *Resolver) findPackage(ctx context.Context, dep model.Dependency, token string) (*orgPackage, error) {
	listURL := fmt.Sprintf("%s/orgs/%s/packages?package_type=nuget", r.options.APIBaseURL, r.options.Org)

	var packages []orgPackage
	if err := r.apiGet(ctx, listURL, token, &packages); err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "failed to list %s packages: %v", r.options.Org, err)
	}

	fragment := strings.ToLower(PackageFragment(dep))
	for i := range packages {
		name := packages[i].Name
		if strings.Contains(strings.ToLower(name), fragment) {
			return &packages[i], nil
		}
		if dep.ID != "" && strings.Contains(name, dep.ID) {
			return &packages[i], nil
		}
	}
	return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound,
		"no package matching %q in the %s registry", PackageFragment(dep), r.options.Org)
}

// packageVersion is one entry of a package's version listing, newest first.
type packageVersion struct {
	Name string `json:"name"`
}

func (r *Resolver) latestVersion(ctx context.Context, pkg *orgPackage, token string) (string, error) {
	versionsURL := pkg.URL + "/versions"

	var versions []packageVersion
	if err := r.apiGet(ctx, versionsURL, token, &versions); err != nil {
		if errors.Is(err, pkgerrors.ErrAuthenticationRequired) {
			return "", err
		}
		return "", pkgerrors.Wrapf(pkgerrors.ErrNotFound, "failed to list versions of %s: %v", pkg.Name, err)
	}
	if len(versions) == 0 {
		return "", pkgerrors.Wrapf(pkgerrors.ErrNotFound, "package %s has no versions", pkg.Name)
	}
	return versions[0].Name, nil
}

func (r *Resolver) apiGet(ctx context.Context, rawURL, token string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", r.options.UserAgent)
	req.Header.Set("Accept", acceptGitHubJSON)
	if token != "" {
		if err := (auth.TokenAuth{Token: token}).Apply(req); err != nil {
			return err
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, pkgerrors.ErrAuthenticationRequired)
	default:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to read response body")
	}
	return json.Unmarshal(data, v)
}
