// Package extract keeps the flat-file item extract in step with the
// generated rows.
//
// The file is read in full, every row whose id falls inside the managed span
// is dropped, the new projections are appended, and the result is written
// back with every field quoted and CRLF line endings.
package extract

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrEmptyExtract is returned when the extract has no header line.
var ErrEmptyExtract = errors.New("extract: file is empty")

const utf8BOM = "\uFEFF"

// File is an in-memory extract.
type File struct {
	Header []string
	Rows   [][]string
}

// Stats summarizes one Sync.
type Stats struct {
	Kept     int
	Removed  int
	Appended int
	// Unparsed counts kept rows whose first cell is not an integer.
	Unparsed int
}

// Total is the number of data rows after the sync.
func (s Stats) Total() int { return s.Kept + s.Appended }

// Read parses the whole extract. A leading UTF-8 BOM is skipped and empty
// records are dropped.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyExtract
	}
	if err != nil {
		return nil, fmt.Errorf("extract: header: %w", err)
	}

	f := &File{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		if isEmpty(rec) {
			continue
		}
		f.Rows = append(f.Rows, rec)
	}
	return f, nil
}

func isEmpty(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}

// Sync returns a new File without the rows whose integer id lies in
// [lo, hi], followed by add. Rows with a non-integer id are kept in place.
func Sync(f *File, lo, hi int64, add [][]string) (*File, Stats) {
	var st Stats
	out := &File{
		Header: append([]string(nil), f.Header...),
		Rows:   make([][]string, 0, len(f.Rows)+len(add)),
	}
	for _, rec := range f.Rows {
		if isEmpty(rec) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			st.Unparsed++
			st.Kept++
			out.Rows = append(out.Rows, rec)
			continue
		}
		if id >= lo && id <= hi {
			st.Removed++
			continue
		}
		st.Kept++
		out.Rows = append(out.Rows, rec)
	}
	for _, rec := range add {
		out.Rows = append(out.Rows, rec)
		st.Appended++
	}
	return out, st
}

// Write renders f with every field quoted and CRLF terminators.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	if err := writeRecord(bw, f.Header); err != nil {
		return err
	}
	for _, rec := range f.Rows {
		if err := writeRecord(bw, rec); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("extract: write: %w", err)
	}
	return nil
}

func writeRecord(bw *bufio.Writer, rec []string) error {
	for i, field := range rec {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('"')
		bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
		bw.WriteByte('"')
	}
	_, err := bw.WriteString("\r\n")
	return err
}
