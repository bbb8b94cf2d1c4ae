package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/lincza/albuild/pkg/model"
	"github.com/lincza/albuild/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocator(feeds ...*model.FeedDescriptor) *Locator {
	return NewLocator(NewRegistry(feeds, 5*time.Second, "albuild-test/1.0"))
}

var lincDependency = model.Dependency{
	ID:        "abc123",
	Name:      "Test Extension",
	Publisher: "Linc Communications (Pty) Ltd",
}

func TestSearch(t *testing.T) {
	t.Run("prefers result whose id contains the query", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		srv.SetSearchResults(func(string) []testutil.FeedPackage {
			return []testutil.FeedPackage{
				{ID: "Unrelated.Package", Version: "9.9.9"},
				{ID: "fabrikam.baseapp.symbols.extra", Version: "1.2.3"},
			}
		})
		fd := srv.Descriptor("AppSourceSymbols")

		pkg, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp.symbols")
		require.NoError(t, err)
		assert.Equal(t, "fabrikam.baseapp.symbols.extra", pkg.ID)
		assert.Equal(t, "1.2.3", pkg.Version)
		assert.Same(t, fd, pkg.Feed)
	})

	t.Run("falls back to first result when nothing contains the query", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		srv.SetSearchResults(func(string) []testutil.FeedPackage {
			return []testutil.FeedPackage{
				{ID: "First.Result", Version: "1.0.0"},
				{ID: "Second.Result", Version: "2.0.0"},
			}
		})
		fd := srv.Descriptor("AppSourceSymbols")

		pkg, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp")
		require.NoError(t, err)
		assert.Equal(t, "First.Result", pkg.ID)
		assert.Equal(t, "1.0.0", pkg.Version)
	})

	t.Run("empty result set is not found", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		fd := srv.Descriptor("AppSourceSymbols")

		_, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp")
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	})

	t.Run("search server error is not found", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		srv.FailSearch(http.StatusInternalServerError)
		fd := srv.Descriptor("AppSourceSymbols")

		_, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp")
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
		assert.NotErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
	})

	t.Run("index failure keeps the feed unavailable identity", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		srv.FailIndex(http.StatusServiceUnavailable)
		fd := srv.Descriptor("AppSourceSymbols")

		_, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp")
		assert.ErrorIs(t, err, pkgerrors.ErrFeedUnavailable)
	})
}

func TestSearch_RequestShape(t *testing.T) {
	var rawQuery, userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.json":
			_, _ = w.Write([]byte(`{"resources": [` +
				`{"@id": "` + "http://" + r.Host + `/search", "@type": "SearchQueryService"},` +
				`{"@id": "` + "http://" + r.Host + `/content", "@type": "PackageBaseAddress/3.0.0"}]}`))
		case "/search":
			rawQuery = r.URL.RawQuery
			userAgent = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(`{"data": [{"id": "Fabrikam.BaseApp.symbols", "version": "1.0.0"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fd := &model.FeedDescriptor{Name: "AppSourceSymbols", IndexURL: srv.URL + "/index.json"}
	_, err := newTestLocator(fd).Search(context.Background(), fd, "Fabrikam.BaseApp.symbols")
	require.NoError(t, err)
	assert.Equal(t, "q=Fabrikam.BaseApp.symbols&prerelease=false", rawQuery)
	assert.Equal(t, "albuild-test/1.0", userAgent)
}

func TestLocate(t *testing.T) {
	t.Run("first candidate wins when the full id form exists", func(t *testing.T) {
		srv := testutil.NewFeedServer(t, testutil.FeedPackage{
			ID:      "LincCommunicationsPtyLtd.TestExtension.symbols.abc123",
			Version: "1.4.0",
		})
		fd := srv.Descriptor("AppSourceSymbols")

		pkg, queries, err := newTestLocator(fd).Locate(context.Background(), fd, lincDependency)
		require.NoError(t, err)
		assert.Equal(t, "LincCommunicationsPtyLtd.TestExtension.symbols.abc123", pkg.ID)
		assert.Equal(t, "1.4.0", pkg.Version)
		assert.Equal(t, 1, queries)
		assert.Equal(t, []string{"LincCommunicationsPtyLtd.TestExtension.symbols.abc123"}, srv.Queries())
	})

	t.Run("misses roll over to the next candidate", func(t *testing.T) {
		srv := testutil.NewFeedServer(t, testutil.FeedPackage{
			ID:      "LincCommunicationsPtyLtd.TestExtension.symbols",
			Version: "1.0.0",
		})
		fd := srv.Descriptor("AppSourceSymbols")

		pkg, queries, err := newTestLocator(fd).Locate(context.Background(), fd, lincDependency)
		require.NoError(t, err)
		assert.Equal(t, "LincCommunicationsPtyLtd.TestExtension.symbols", pkg.ID)
		assert.Equal(t, 2, queries)
		assert.Equal(t, []string{
			"LincCommunicationsPtyLtd.TestExtension.symbols.abc123",
			"LincCommunicationsPtyLtd.TestExtension.symbols",
		}, srv.Queries())
	})

	t.Run("exhausting every candidate is not found", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		fd := srv.Descriptor("AppSourceSymbols")

		_, queries, err := newTestLocator(fd).Locate(context.Background(), fd, lincDependency)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
		assert.Equal(t, 3, queries)
		assert.Equal(t, []string{
			"LincCommunicationsPtyLtd.TestExtension.symbols.abc123",
			"LincCommunicationsPtyLtd.TestExtension.symbols",
			"LincCommunicationsPtyLtd.TestExtension",
		}, srv.Queries())
	})

	t.Run("unusable feed aborts without issuing queries", func(t *testing.T) {
		srv := testutil.NewFeedServer(t)
		srv.FailIndex(http.StatusServiceUnavailable)
		fd := srv.Descriptor("AppSourceSymbols")

		_, queries, err := newTestLocator(fd).Locate(context.Background(), fd, lincDependency)
		assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
		assert.Equal(t, 0, queries)
		assert.Empty(t, srv.Queries())
	})
}
