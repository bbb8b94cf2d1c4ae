package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lincza/albuild/pkg/model"
)

// FeedPackage is one package a FeedServer offers.
type FeedPackage struct {
	ID      string
	Version string
	Nupkg   []byte
}

// FeedServer is an in-process NuGet v3 style symbol feed for tests. It serves
// a service index, a search endpoint and a package content endpoint, and
// records every search query and download path it receives.
type FeedServer struct {
	srv *httptest.Server

	mu           sync.Mutex
	packages     []FeedPackage
	queries      []string
	downloads    []string
	searchFn     func(query string) []FeedPackage
	indexStatus  int
	searchStatus int
}

// NewFeedServer starts a feed server offering the given packages. The server
// is shut down automatically when the test finishes.
func NewFeedServer(t *testing.T, packages ...FeedPackage) *FeedServer {
	t.Helper()
	fs := &FeedServer{packages: packages}

	mux := http.NewServeMux()
	mux.HandleFunc("/v3/index.json", fs.handleIndex)
	mux.HandleFunc("/search", fs.handleSearch)
	mux.HandleFunc("/content/", fs.handleContent)

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

// URL returns the server's base URL.
func (fs *FeedServer) URL() string {
	return fs.srv.URL
}

// Descriptor returns a feed descriptor pointing at this server's index.
func (fs *FeedServer) Descriptor(name string) *model.FeedDescriptor {
	return &model.FeedDescriptor{Name: name, IndexURL: fs.srv.URL + "/v3/index.json"}
}

// Queries returns the search queries received so far, in order.
func (fs *FeedServer) Queries() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.queries...)
}

// Downloads returns the content paths requested so far, in order.
func (fs *FeedServer) Downloads() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.downloads...)
}

// SetSearchResults overrides the default contains-matching with a custom
// result set per query.
func (fs *FeedServer) SetSearchResults(fn func(query string) []FeedPackage) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.searchFn = fn
}

// FailIndex makes the service index endpoint answer with the given status.
func (fs *FeedServer) FailIndex(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.indexStatus = status
}

// FailSearch makes the search endpoint answer with the given status.
func (fs *FeedServer) FailSearch(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.searchStatus = status
}

func (fs *FeedServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	fs.mu.Lock()
	status := fs.indexStatus
	fs.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	index := map[string]interface{}{
		"version": "3.0.0",
		"resources": []map[string]string{
			{"@id": fs.srv.URL + "/search", "@type": "SearchQueryService/3.5.0"},
			{"@id": fs.srv.URL + "/content/", "@type": "PackageBaseAddress/3.0.0"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(index)
}

func (fs *FeedServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	fs.mu.Lock()
	fs.queries = append(fs.queries, query)
	status := fs.searchStatus
	searchFn := fs.searchFn
	fs.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	var hits []FeedPackage
	if searchFn != nil {
		hits = searchFn(query)
	} else {
		for _, pkg := range fs.packages {
			if strings.Contains(strings.ToLower(pkg.ID), strings.ToLower(query)) {
				hits = append(hits, pkg)
			}
		}
	}

	data := make([]map[string]string, 0, len(hits))
	for _, hit := range hits {
		data = append(data, map[string]string{"id": hit.ID, "version": hit.Version})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func (fs *FeedServer) handleContent(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	fs.downloads = append(fs.downloads, r.URL.Path)
	packages := fs.packages
	fs.mu.Unlock()

	// Path form: /content/{id}/{version}/{id}.{version}.nupkg, lowercased by
	// the client.
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/content/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	id, version := parts[0], parts[1]

	for _, pkg := range packages {
		if strings.EqualFold(pkg.ID, id) && strings.EqualFold(pkg.Version, version) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pkg.Nupkg)
			return
		}
	}
	http.NotFound(w, r)
}
