package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"clonegen/internal/datasource/file"
)

// StatusError reports a non-200 response for a remote input.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d", e.URL, e.Code)
}

// Source is a remote input bound to one URL.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source reading url through c.
func NewSource(c *Client, url string) *Source { return &Source{client: c, url: url} }

// Open fetches the URL and returns its body decoded to UTF-8 the same way
// local inputs are.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return file.Decode(resp.Body), nil
}
