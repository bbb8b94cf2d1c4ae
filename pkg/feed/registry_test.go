package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceIndexJSON(searchURL, baseURL string) string {
	return `{
		"version": "3.0.0",
		"resources": [
			{"@id": "` + searchURL + `", "@type": "SearchQueryService/3.5.0"},
			{"@id": "` + baseURL + `", "@type": "PackageBaseAddress/3.0.0"},
			{"@id": "https://example.invalid/registration", "@type": "RegistrationsBaseUrl"}
		]
	}`
}

func TestResolveEndpoints(t *testing.T) {
	t.Run("resolves both endpoints and trims trailing slash", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(serviceIndexJSON("https://feed.example/search/", "https://feed.example/content/")))
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		require.NoError(t, err)
		assert.Equal(t, "https://feed.example/search", fd.SearchURL)
		assert.Equal(t, "https://feed.example/content", fd.PackageBaseURL)
		assert.True(t, fd.Resolved())
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(serviceIndexJSON("https://feed.example/search", "https://feed.example/content")))
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		require.NoError(t, registry.ResolveEndpoints(context.Background(), fd))
		require.NoError(t, registry.ResolveEndpoints(context.Background(), fd))
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("non-200 status is feed unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
		assert.False(t, fd.Resolved())
	})

	t.Run("unreachable server is feed unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		assert.ErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
	})

	t.Run("malformed index is feed unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		assert.ErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
	})

	t.Run("missing search service is endpoint not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"resources": [{"@id": "https://feed.example/content", "@type": "PackageBaseAddress/3.0.0"}]}`))
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		assert.ErrorIs(t, err, pkgerrors.ErrEndpointNotFound)
		assert.False(t, fd.Resolved())
	})

	t.Run("missing package base address is endpoint not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"resources": [{"@id": "https://feed.example/search", "@type": "SearchQueryService"}]}`))
		}))
		defer srv.Close()

		fd := &model.FeedDescriptor{Name: "MSSymbols", IndexURL: srv.URL}
		registry := NewRegistry([]*model.FeedDescriptor{fd}, 5*time.Second, "")

		err := registry.ResolveEndpoints(context.Background(), fd)
		assert.ErrorIs(t, err, pkgerrors.ErrEndpointNotFound)
	})
}

func TestFeedByName(t *testing.T) {
	feeds := []*model.FeedDescriptor{
		{Name: "MSSymbols", IndexURL: "https://one.example/index.json"},
		{Name: "AppSourceSymbols", IndexURL: "https://two.example/index.json"},
	}
	registry := NewRegistry(feeds, 5*time.Second, "")

	assert.Same(t, feeds[0], registry.FeedByName("MSSymbols"))
	assert.Same(t, feeds[1], registry.FeedByName("appsourcesymbols"))
	assert.Nil(t, registry.FeedByName("Unknown"))
	assert.Equal(t, feeds, registry.Feeds())
}
