package skiplog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"testing"
)

func readAll(t *testing.T, b *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(b.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("readall: %v", err)
	}
	return rows
}

// TestNewWriter_Header checks an empty log is exactly the header row.
func TestNewWriter_Header(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	rows := readAll(t, &buf)
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 row (header), got %d: %#v", len(rows), rows)
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Fatalf("header mismatch\ngot : %#v\nwant: %#v", rows[0], Header)
	}
}

// TestLog_Add_WritesRowsAndCounts covers per-reason counters and CSV quoting.
func TestLog_Add_WritesRowsAndCounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	inputs := []struct {
		reason string
		id     int64
		tier   int
		detail string
	}{
		{"missing", 40, 1, "Base item 40 not found in item_template (tier 1)"},
		{"skipped", 41, 2, `Skipping base item 41 ("Bag, large") due to inventory type 18`},
		{"missing", 45, 2, ""},
	}
	for _, in := range inputs {
		if err := l.Add(in.reason, in.id, in.tier, in.detail); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	rows := readAll(t, &buf)
	if len(rows) != 1+len(inputs) {
		t.Fatalf("want %d rows, got %d: %#v", 1+len(inputs), len(rows), rows)
	}
	want := [][]string{
		{"missing", "40", "1", "Base item 40 not found in item_template (tier 1)"},
		{"skipped", "41", "2", `Skipping base item 41 ("Bag, large") due to inventory type 18`},
		{"missing", "45", "2", ""},
	}
	if !reflect.DeepEqual(rows[1:], want) {
		t.Fatalf("rows mismatch\ngot : %#v\nwant: %#v", rows[1:], want)
	}
	if l.Count("missing") != 2 || l.Count("skipped") != 1 || l.Total() != 3 {
		t.Fatalf("counts missing=%d skipped=%d total=%d", l.Count("missing"), l.Count("skipped"), l.Total())
	}
}

func TestNewWriter_PlainRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := l.Add("skipped", 7, 1, "bag"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got, want := buf.String(), "reason,base_id,tier,detail\nskipped,7,1,bag\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestFlush_ReportsWriteError(t *testing.T) {
	t.Parallel()

	l, err := NewWriter(failWriter{})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := l.Flush(); err == nil {
		t.Fatalf("expected error from failing writer")
	}
}
