package verify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteReport writes a formatted report to a writer.
func (r *Report) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "DATA CHECK")
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Image: %s, %d pixels compared\n", r.Shape, r.Compared)

	if r.Passed() {
		fmt.Fprintln(w, "✓ Data check OK")
		fmt.Fprintln(w)

		return
	}

	fmt.Fprintf(w, "⚠ DATA ERROR COUNT: found %d errors\n", r.MismatchCount)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("First %d mismatches", len(r.FirstMismatches)))
	t.AppendHeader(table.Row{"#", "Row", "Column", "Received", "Expected"})

	for i, m := range r.FirstMismatches {
		t.AppendRow(table.Row{i + 1, m.Row, m.Col, m.Got, m.Expected})
	}

	if hidden := r.MismatchCount - len(r.FirstMismatches); hidden > 0 {
		t.AppendFooter(table.Row{"", "", "", "more", hidden})
	}

	t.Render()
	fmt.Fprintln(w)
}

// SaveReportToFile saves the report to a file.
func (r *Report) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)

	return nil
}
