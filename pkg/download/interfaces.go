package download

import (
	"context"
	"net/url"

	"github.com/lincza/albuild/pkg/auth"
)

// Manager defines the interface for downloading remote package archives.
// It replaces ad-hoc HTTP downloading with a testable API that reuses
// previously downloaded files and finalizes writes atomically.
type Manager interface {
	// Fetch downloads a single item to a deterministic location (within opts.Dir).
	// It returns the absolute local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)
}

// Item represents one remote resource to download.
type Item struct {
	URL      *url.URL           // source URL to download
	Filename string             // optional preferred filename; if empty, a name will be derived
	Auth     auth.Authenticator // optional authentication applied to the request
}

// Options control the behavior of the download manager.
type Options struct {
	Dir string // destination directory (cache). Must be absolute.
}
