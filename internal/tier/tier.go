// Package tier loads the per-tier base id lists.
//
// A list is a delimited text file whose first line is a header. Every later
// line contributes the non-negative integer in its first field; anything else
// is skipped.
package tier

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"clonegen/internal/datasource/file"
)

// DefaultComma separates fields in a tier list.
const DefaultComma = ';'

// malformedLogLimit caps per-line log output for skipped lines.
const malformedLogLimit = 400

// maxLineLen bounds one line. Longer lines are skipped as malformed.
const maxLineLen = 1 << 20

// Stats describes one load.
type Stats struct {
	Lines     int // non-blank data lines seen
	Malformed int // lines whose first field was not a non-negative integer
}

// List is the explicit membership for one tier.
type List struct {
	Tier  int
	Path  string
	IDs   []int64
	Stats Stats
}

// Contains reports whether id is listed. Nil lists contain nothing.
func (l *List) Contains(id int64) bool {
	if l == nil {
		return false
	}
	for _, v := range l.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Set returns the ids as a lookup set.
func (l *List) Set() map[int64]struct{} {
	if l == nil {
		return nil
	}
	m := make(map[int64]struct{}, len(l.IDs))
	for _, id := range l.IDs {
		m[id] = struct{}{}
	}
	return m
}

// Load reads ids from r. The first line is a header and is ignored. File
// order and duplicates are preserved.
func Load(r io.Reader, comma rune) ([]int64, Stats, error) {
	if comma == 0 {
		comma = DefaultComma
	}
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		ids    []int64
		st     Stats
		header = true
	)
	for {
		raw, long, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("tier: read: %w", err)
		}
		if header {
			header = false
			continue
		}
		if long {
			st.Lines++
			st.Malformed++
			if st.Malformed <= malformedLogLimit {
				log.Printf("tier: skip line=%d reason=\"longer than %d bytes\"", st.Lines+1, maxLineLen)
			}
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		st.Lines++
		first, _, _ := strings.Cut(line, string(comma))
		first = strings.Trim(strings.TrimSpace(first), `"`)
		id, err := strconv.ParseInt(first, 10, 64)
		if err != nil || id < 0 {
			st.Malformed++
			if st.Malformed <= malformedLogLimit {
				log.Printf("tier: skip line=%d reason=%q", st.Lines+1, abbrev(line, 40))
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids, st, nil
}

// readLine returns the next line including its terminator. A line longer
// than maxLineLen is consumed and reported with long set and no content.
// io.EOF is returned only when nothing is left to read.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf  []byte
		long bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !long {
			if len(buf)+len(chunk) > maxLineLen {
				long, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if len(buf) == 0 && !long {
				return "", false, io.EOF
			}
			return string(buf), long, nil
		case err != nil:
			return "", false, err
		}
		return string(buf), long, nil
	}
}

// Opener yields the content of a tier list.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// LoadFile reads the tier list at path from the local filesystem. An empty
// path means the tier is not configured and yields a nil list.
func LoadFile(ctx context.Context, path string, tierID int, comma rune) (*List, error) {
	if path == "" {
		return nil, nil
	}
	return LoadFrom(ctx, file.NewLocal(path), path, tierID, comma)
}

// LoadFrom reads a tier list from src. name labels the list in errors and in
// the returned List.
func LoadFrom(ctx context.Context, src Opener, name string, tierID int, comma rune) (*List, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("tier %d list: %w", tierID, err)
	}
	defer rc.Close()

	ids, st, err := Load(rc, comma)
	if err != nil {
		return nil, fmt.Errorf("tier %d list %s: %w", tierID, name, err)
	}
	return &List{Tier: tierID, Path: name, IDs: ids, Stats: st}, nil
}

func abbrev(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
