// Package verify compares accelerator output against the software
// reference.
//
// The comparison never stops at the first difference: every pixel is
// checked, the total number of differing pixels is counted and the first few
// differences are recorded in row-major order so that a failure can be
// diagnosed without running again.
//
// # Usage Example
//
//	report, err := verify.Compare(hwResult, reference)
//	if err != nil {
//	    // shapes differ, nothing was compared
//	}
//	report.WriteReport(os.Stdout)
//	if !report.Passed() {
//	    ...
//	}
package verify

import (
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/failure"
)

// DefaultMismatchLimit is how many mismatches a report records.
const DefaultMismatchLimit = 16

// Mismatch is one pixel that differs.
type Mismatch struct {
	Row      int
	Col      int
	Got      byte
	Expected byte
}

// Report is the outcome of a comparison.
type Report struct {
	Shape           accel.ImageShape
	Compared        int
	MismatchCount   int
	FirstMismatches []Mismatch
	Limit           int
}

// Compare checks actual against expected, recording up to
// DefaultMismatchLimit mismatches.
func Compare(actual, expected accel.Image) (*Report, error) {
	return CompareWithLimit(actual, expected, DefaultMismatchLimit)
}

// CompareWithLimit is like Compare but records up to limit mismatches.
func CompareWithLimit(actual, expected accel.Image, limit int) (*Report, error) {
	if !accel.SameShape(actual, expected) {
		return nil, failure.NewShapeMismatchError(actual.Shape, expected.Shape)
	}

	n := expected.Shape.Pixels()
	if len(actual.Pix) < n || len(expected.Pix) < n {
		return nil, failure.NewShapeMismatchError(actual.Shape, expected.Shape)
	}

	if limit < 0 {
		limit = 0
	}

	report := &Report{
		Shape:    expected.Shape,
		Compared: n,
		Limit:    limit,
	}

	width := int(expected.Shape.Width)

	for i := 0; i < n; i++ {
		if actual.Pix[i] == expected.Pix[i] {
			continue
		}

		report.MismatchCount++

		if len(report.FirstMismatches) < limit {
			report.FirstMismatches = append(report.FirstMismatches, Mismatch{
				Row:      i / width,
				Col:      i % width,
				Got:      actual.Pix[i],
				Expected: expected.Pix[i],
			})
		}
	}

	return report, nil
}

// Passed reports whether no pixel differs.
func (r *Report) Passed() bool {
	return r.MismatchCount == 0
}

// Err returns a content mismatch error if any pixel differs.
func (r *Report) Err() error {
	if r.Passed() {
		return nil
	}

	return failure.NewContentMismatchError(r.MismatchCount)
}
