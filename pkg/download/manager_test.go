package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lincza/albuild/pkg/auth"
	pkgerrors "github.com/lincza/albuild/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		userAgent  string
		expectedUA string
	}{
		{
			name:       "default user agent",
			timeout:    time.Second,
			expectedUA: "albuild/1.0",
		},
		{
			name:       "custom user agent",
			timeout:    2 * time.Second,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.timeout, tt.userAgent)
			require.NotNil(t, m)
			assert.Equal(t, tt.timeout, m.client.Timeout)
			assert.Equal(t, tt.expectedUA, m.userAgent)
		})
	}
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFetch(t *testing.T) {
	t.Run("successful download", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte("nupkg bytes"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewManager(5*time.Second, "albuild-test/1.0")
		path, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL+"/pkg.nupkg"),
			Filename: "pkg.nupkg",
		}, Options{Dir: dir})

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "pkg.nupkg"), path)
		assert.Equal(t, "albuild-test/1.0", gotUA)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("nupkg bytes"), content)
	})

	t.Run("reuses existing non-empty file without request", func(t *testing.T) {
		requests := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests++
			_, _ = w.Write([]byte("fresh"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		existing := filepath.Join(dir, "pkg.nupkg")
		require.NoError(t, os.WriteFile(existing, []byte("cached"), 0o644))

		m := NewManager(5*time.Second, "")
		path, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL+"/pkg.nupkg"),
			Filename: "pkg.nupkg",
		}, Options{Dir: dir})

		require.NoError(t, err)
		assert.Equal(t, existing, path)
		assert.Equal(t, 0, requests)
		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("cached"), content)
	})

	t.Run("applies authenticator", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL),
			Filename: "f",
			Auth:     auth.BearerAuth{Token: "tok"},
		}, Options{Dir: t.TempDir()})

		require.NoError(t, err)
		assert.Equal(t, "Bearer tok", gotAuth)
	})

	t.Run("404 maps to download failed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL),
			Filename: "f",
		}, Options{Dir: t.TempDir()})

		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
	})

	t.Run("401 and 403 map to authentication required", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			m := NewManager(5*time.Second, "")
			_, err := m.Fetch(context.Background(), Item{
				URL:      mustParseURL(t, srv.URL),
				Filename: "f",
			}, Options{Dir: t.TempDir()})
			srv.Close()

			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrAuthenticationRequired, "status %d", status)
		}
	})

	t.Run("relative dir rejected", func(t *testing.T) {
		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{
			URL: mustParseURL(t, "http://example.test/f"),
		}, Options{Dir: "relative/dir"})

		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidPath)
	})

	t.Run("nil URL rejected", func(t *testing.T) {
		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{}, Options{Dir: t.TempDir()})

		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrDownloadFailed)
	})

	t.Run("derives filename from url hash when unset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("data"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewManager(5*time.Second, "")
		path, err := m.Fetch(context.Background(), Item{
			URL: mustParseURL(t, srv.URL+"/some/pkg"),
		}, Options{Dir: dir})

		require.NoError(t, err)
		assert.Equal(t, dir, filepath.Dir(path))
		assert.Len(t, filepath.Base(path), 64) // hex encoded sha256
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("data"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL),
			Filename: "out.bin",
		}, Options{Dir: dir})
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out.bin", entries[0].Name())
	})

	t.Run("no temp files left behind after truncated body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Length", "1048576")
			_, _ = w.Write([]byte("short"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewManager(5*time.Second, "")
		_, err := m.Fetch(context.Background(), Item{
			URL:      mustParseURL(t, srv.URL),
			Filename: "out.bin",
		}, Options{Dir: dir})
		require.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
