// Package skiplog renders every base id the generator could not clone as
// CSV, written next to the generated outputs.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Header is the fixed first row of a skip log.
var Header = []string{"reason", "base_id", "tier", "detail"}

// Log appends skip rows and counts them per reason.
type Log struct {
	reasons map[string]int
	w       *csv.Writer
}

// NewWriter writes the header to w and returns a Log appending to it. Call
// Flush once every row is added.
func NewWriter(w io.Writer) (*Log, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("skiplog: header: %w", err)
	}
	return &Log{reasons: make(map[string]int), w: cw}, nil
}

// Flush writes any buffered rows to the underlying writer.
func (l *Log) Flush() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("skiplog: flush: %w", err)
	}
	return nil
}

// Add appends one row.
func (l *Log) Add(reason string, baseID int64, tier int, detail string) error {
	l.reasons[reason]++
	return l.w.Write([]string{reason, strconv.FormatInt(baseID, 10), strconv.Itoa(tier), detail})
}

// Count returns how many rows were added for reason.
func (l *Log) Count(reason string) int { return l.reasons[reason] }

// Total returns the number of rows added.
func (l *Log) Total() int {
	n := 0
	for _, c := range l.reasons {
		n += c
	}
	return n
}
