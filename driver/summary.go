package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/failure"
)

// Summary collects the results of a run.
type Summary struct {
	Params  accel.ProcessingParams
	Results []IterationResult
}

// Passed returns the number of successful iterations.
func (s *Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed() {
			n++
		}
	}

	return n
}

// Failed returns the number of failed iterations.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Passed()
}

// AllPassed reports whether at least one iteration ran and none failed.
func (s *Summary) AllPassed() bool {
	return len(s.Results) > 0 && s.Failed() == 0
}

// WriteSummary writes a table with one row per iteration.
func (s *Summary) WriteSummary(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "%s image, kernel %s, border %s, bypass %v\n",
		s.Params.Shape, s.Params.Kernel.Name(), s.Params.Border, s.Params.Bypass)
	fmt.Fprintln(w, separator)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Iteration", "SW Cycles", "HW Cycles", "Speedup", "Mismatches", "Result"})

	for _, r := range s.Results {
		mismatches := "-"
		if r.Report != nil {
			mismatches = fmt.Sprint(r.Report.MismatchCount)
		}

		t.AppendRow(table.Row{
			r.Index, r.SWCycles, r.HWCycles, speedup(r), mismatches, outcome(r),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", "Passed", fmt.Sprintf("%d/%d", s.Passed(), len(s.Results))})
	t.Render()
}

func speedup(r IterationResult) string {
	if r.HWCycles == 0 || r.Err != nil {
		return "-"
	}

	return fmt.Sprintf("%.2fx", float64(r.SWCycles)/float64(r.HWCycles))
}

func outcome(r IterationResult) string {
	switch {
	case r.Err == nil:
		return "OK"
	case failure.IsTimeout(r.Err, accel.Outbound):
		return "TX TIMEOUT"
	case failure.IsTimeout(r.Err, accel.Inbound):
		return "RX TIMEOUT"
	case failure.Is(r.Err, failure.KindContentMismatch):
		return "DATA ERROR"
	default:
		return "FAILED"
	}
}
