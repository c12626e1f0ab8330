// Package datasource resolves an input location to a readable source. A
// location is either a local path or an http(s) URL.
package datasource

import (
	"context"
	"io"
	"strings"

	"clonegen/internal/datasource/file"
	"clonegen/internal/datasource/httpds"
)

// Source yields the UTF-8 content of one input.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Resolver maps locations to sources, sharing one HTTP client.
type Resolver struct {
	client *httpds.Client
}

// NewResolver returns a Resolver whose remote sources use cfg.
func NewResolver(cfg httpds.Config) *Resolver {
	return &Resolver{client: httpds.NewClient(cfg)}
}

// Source returns the source for location.
func (r *Resolver) Source(location string) Source {
	if IsRemote(location) {
		return httpds.NewSource(r.client, location)
	}
	return file.NewLocal(location)
}
