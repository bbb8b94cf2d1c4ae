package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/model"
)

// Resource types looked up in a feed's service index document.
const (
	searchServiceType      = "SearchQueryService"
	packageBaseAddressType = "PackageBaseAddress"
)

// Registry holds the configured symbol feeds and resolves their service
// endpoints from the NuGet v3 index document on first use.
type Registry struct {
	client    *http.Client
	userAgent string
	feeds     []*model.FeedDescriptor
}

// NewRegistry creates a registry over the given feeds.
func NewRegistry(feeds []*model.FeedDescriptor, timeout time.Duration, userAgent string) *Registry {
	if userAgent == "" {
		userAgent = "albuild/1.0"
	}
	return &Registry{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		feeds:     feeds,
	}
}

// Feeds returns the configured feeds in their configured order.
func (r *Registry) Feeds() []*model.FeedDescriptor {
	return r.feeds
}

// FeedByName returns the named feed, or nil if none matches.
func (r *Registry) FeedByName(name string) *model.FeedDescriptor {
	for _, fd := range r.feeds {
		if strings.EqualFold(fd.Name, name) {
			return fd
		}
	}
	return nil
}

// serviceIndex is the NuGet v3 service index document.
type serviceIndex struct {
	Resources []serviceResource `json:"resources"`
}

type serviceResource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

// ResolveEndpoints populates the feed's search and package-base URLs from its
// service index. Calling it again after a successful resolution is a no-op.
func (r *Registry) ResolveEndpoints(ctx context.Context, fd *model.FeedDescriptor) error {
	if fd.Resolved() {
		return nil
	}

	index, err := r.fetchServiceIndex(ctx, fd)
	if err != nil {
		return err
	}

	searchURL := findResource(index, searchServiceType)
	if searchURL == "" {
		return pkgerrors.ErrEndpointNotFoundWithType(fd.Name, searchServiceType)
	}
	baseURL := findResource(index, packageBaseAddressType)
	if baseURL == "" {
		return pkgerrors.ErrEndpointNotFoundWithType(fd.Name, packageBaseAddressType)
	}

	fd.SearchURL = searchURL
	fd.PackageBaseURL = baseURL
	return nil
}

func (r *Registry) fetchServiceIndex(ctx context.Context, fd *model.FeedDescriptor) (*serviceIndex, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.IndexURL, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrFeedUnavailableWithName(fd.Name), "failed to create index request: %v", err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrFeedUnavailableWithName(fd.Name), "failed to fetch service index: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrFeedUnavailableWithName(fd.Name), "unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrFeedUnavailableWithName(fd.Name), "failed to read service index: %v", err)
	}

	var index serviceIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrFeedUnavailableWithName(fd.Name), "failed to parse service index: %v", err)
	}
	return &index, nil
}

// findResource returns the @id of the first resource whose @type starts with
// the given prefix, trimmed of any trailing slash.
func findResource(index *serviceIndex, typePrefix string) string {
	for _, res := range index.Resources {
		if strings.HasPrefix(res.Type, typePrefix) {
			return strings.TrimSuffix(res.ID, "/")
		}
	}
	return ""
}
