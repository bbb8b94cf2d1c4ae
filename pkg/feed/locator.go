package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lincza/albuild/internal/logger"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/model"
)

// Locator finds packages on a feed by trying search queries in order.
type Locator struct {
	registry *Registry
}

// NewLocator creates a locator backed by the given registry.
func NewLocator(registry *Registry) *Locator {
	return &Locator{registry: registry}
}

// searchResponse is the relevant part of a NuGet search service reply.
type searchResponse struct {
	Data []searchEntry `json:"data"`
}

type searchEntry struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Search issues a single search query against the feed and applies the
// selection rule: the first result whose id contains the query
// (case-insensitive) wins, otherwise the first result is taken as a last
// resort. Search failures of any kind, including transport errors, come back
// as ErrNotFound so a caller can keep trying other queries; only endpoint
// resolution failures keep their ErrFeedUnavailable or ErrEndpointNotFound
// identity.
func (l *Locator) Search(ctx context.Context, fd *model.FeedDescriptor, query string) (*model.CandidatePackage, error) {
	if err := l.registry.ResolveEndpoints(ctx, fd); err != nil {
		return nil, err
	}

	results, err := l.fetchSearchResults(ctx, fd, query)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "search %q on feed %s: %v", query, fd.Name, err)
	}
	if len(results) == 0 {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "no results for %q on feed %s", query, fd.Name)
	}

	selected := results[0]
	for _, entry := range results {
		if strings.Contains(strings.ToLower(entry.ID), strings.ToLower(query)) {
			selected = entry
			break
		}
	}
	return &model.CandidatePackage{ID: selected.ID, Version: selected.Version, Feed: fd}, nil
}

// Locate tries each query candidate for the dependency against the feed and
// returns the first package found together with the number of search queries
// issued. Every miss collapses into ErrNotFound; the message keeps the
// underlying cause. An unusable feed aborts the candidate loop since retrying
// it with a different query cannot succeed.
func (l *Locator) Locate(ctx context.Context, fd *model.FeedDescriptor, dep model.Dependency) (*model.CandidatePackage, int, error) {
	queries := 0
	for _, candidate := range QueryCandidates(dep) {
		pkg, err := l.Search(ctx, fd, candidate)
		if errors.Is(err, pkgerrors.ErrFeedUnavailable) || errors.Is(err, pkgerrors.ErrEndpointNotFound) {
			return nil, queries, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "feed %s unusable: %v", fd.Name, err)
		}
		queries++
		if err != nil {
			logger.DebugfWithFields(logger.Fields{
				"feed":  fd.Name,
				"query": candidate,
			}, "Search candidate missed")
			continue
		}
		logger.DebugfWithFields(logger.Fields{
			"feed":    fd.Name,
			"query":   candidate,
			"package": pkg.ID,
			"version": pkg.Version,
		}, "Search candidate matched")
		return pkg, queries, nil
	}
	return nil, queries, pkgerrors.Wrapf(pkgerrors.ErrNotFound,
		"no package for %s after %d queries on feed %s", dep.Label(), queries, fd.Name)
}

func (l *Locator) fetchSearchResults(ctx context.Context, fd *model.FeedDescriptor, query string) ([]searchEntry, error) {
	searchURL := fmt.Sprintf("%s?q=%s&prerelease=false", fd.SearchURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create search request")
	}

	req.Header.Set("User-Agent", l.registry.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.registry.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read search response")
	}

	var parsed searchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to parse search response")
	}
	return parsed.Data, nil
}
