// Package observability provides formatted output utilities for CLI inspection of runs.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/job-fit-analyzer/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
)

// Printer handles formatted output for run inspection
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRun outputs a human-readable summary of an analysis run
func (p *Printer) PrintRun(run *db.AnalysisRun) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", run.JobID))
	if run.ProfileID != nil {
		sb.WriteString(fmt.Sprintf("Profile:  %s\n", *run.ProfileID))
	} else {
		sb.WriteString("Profile:  (none)\n")
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("Created:  %s", run.CreatedAt.Format("2006-01-02 15:04:05")))
	if run.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("\nFinished: %s", run.CompletedAt.Format("2006-01-02 15:04:05")))
	}

	p.printBox(fmt.Sprintf("Run %s", run.ID), sb.String())
}

// PrintResults outputs each persisted section of a run's report
func (p *Printer) PrintResults(results []db.AnalysisResult) {
	for _, result := range results {
		p.printBox("Section: "+result.Section, indentJSON(result.Content))
	}
	if len(results) == 0 {
		fmt.Fprintln(p.out, "No sections persisted.")
	}
}

// indentJSON pretty-prints section content, falling back to the raw text
func indentJSON(content json.RawMessage) string {
	var buf strings.Builder
	var out map[string]any
	if err := json.Unmarshal(content, &out); err != nil {
		return string(content)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return string(content)
	}
	buf.Write(pretty)
	return buf.String()
}
