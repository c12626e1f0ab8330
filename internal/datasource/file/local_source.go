// Package file implements local filesystem inputs and outputs for the
// generator: BOM-aware readers for dumps, tier lists, and the extract, and an
// atomic whole-file writer for the generated artifacts.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser
// that yields UTF-8 text.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - A leading byte order mark is consumed. UTF-16 inputs (LE/BE with BOM)
//     are transcoded to UTF-8; inputs without a BOM pass through unchanged.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return Decode(f), nil
}

// Decode wraps rc so that a leading byte order mark is consumed and UTF-16
// content is transcoded to UTF-8. Closing the result closes rc.
func Decode(rc io.ReadCloser) io.ReadCloser {
	dec := transform.NewReader(rc, unicode.BOMOverride(transform.Nop))
	return readCloser{Reader: dec, c: rc}
}

// ReadAll opens the source and returns its full decoded content.
func (l *Local) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := l.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return b, nil
}

type readCloser struct {
	io.Reader
	c io.Closer
}

func (r readCloser) Close() error { return r.c.Close() }
