package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"clonegen/internal/pipeline"
)

// maxReportWarnings caps the warning lines printed to the terminal; the skip
// log keeps the full list.
const maxReportWarnings = 20

// printReport writes the operator summary. It prints whatever rep holds, so a
// failed run still shows how far it got.
func printReport(w io.Writer, rep *pipeline.Report) {
	if rep == nil {
		return
	}
	fmt.Fprintf(w, "job %s finished in %s\n", rep.Job, rep.Elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(w, "  templates:   %d rows, %d columns\n", rep.BaseRows, rep.Columns)
	fmt.Fprintf(w, "  generated:   %d rows\n", rep.Generated)
	fmt.Fprintf(w, "  mappings:    %d rows\n", rep.Mappings)
	fmt.Fprintf(w, "  metadata:    %d rows\n", rep.Metadata)
	fmt.Fprintf(w, "  extract:     %d rows (kept %d, removed %d, appended %d)\n",
		rep.ExtractTotal, rep.Extract.Kept, rep.Extract.Removed, rep.Extract.Appended)
	if len(rep.Omitted) > 0 {
		fmt.Fprintf(w, "  omitted:     %s\n", strings.Join(rep.Omitted, ", "))
	}

	tiers := make([]int, 0, len(rep.Summary))
	for t := range rep.Summary {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	for _, t := range tiers {
		s := rep.Summary[t]
		if s == nil {
			continue
		}
		fmt.Fprintf(w, "  tier %d:      %d bases, %d clones, %d missing, %d skipped\n",
			t, s.Bases, s.Clones, s.Missing, s.Skipped)
	}

	printOutput(w, "sql", rep.SQL)
	printOutput(w, "extract out", rep.ExtractOut)
	if rep.SkipLog != "" && rep.Skipped > 0 {
		fmt.Fprintf(w, "  skip log:    %s (%d rows)\n", rep.SkipLog, rep.Skipped)
	}

	if n := len(rep.Warnings); n > 0 {
		fmt.Fprintf(w, "warnings (%d):\n", n)
		for i, wn := range rep.Warnings {
			if i == maxReportWarnings {
				fmt.Fprintf(w, "  ... %d more\n", n-i)
				break
			}
			fmt.Fprintf(w, "  %s tier=%d base=%d: %s\n", wn.Reason, wn.Tier, wn.BaseID, wn.Message)
		}
	}
}

func printOutput(w io.Writer, label string, o pipeline.Output) {
	if o.Path == "" {
		return
	}
	state := "written"
	if o.Unchanged {
		state = "unchanged"
	}
	fmt.Fprintf(w, "  %-12s %s (%d bytes, xxh3 %016x, %s)\n", label+":", o.Path, o.Bytes, o.Digest, state)
}
