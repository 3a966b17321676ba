// Package driver runs the accelerator benchmark: every iteration filters an
// image in software and on the accelerator, times both and checks that the
// results are identical.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/failure"
	"github.com/sarchlab/imgaccel/filter"
	"github.com/sarchlab/imgaccel/offload"
	"github.com/sarchlab/imgaccel/platform"
	"github.com/sarchlab/imgaccel/verify"
)

// Driver runs benchmark iterations on a platform.
type Driver struct {
	platform      platform.Platform
	orchestrator  *offload.Orchestrator
	params        accel.ProcessingParams
	source        Source
	mismatchLimit int
	output        string
	reportWriter  io.Writer
}

// IterationResult is the outcome of one iteration. Err is nil only if the
// hardware result matched the reference.
type IterationResult struct {
	Index    int
	SWCycles uint64
	HWCycles uint64
	Report   *verify.Report
	Err      error
}

// Passed reports whether the iteration succeeded.
func (r IterationResult) Passed() bool {
	return r.Err == nil
}

// Run executes up to iterations iterations. It stops early when ctx is
// cancelled or an iteration fails in a way that affects every later
// iteration, such as an allocation failure. The summary covers the
// iterations that ran.
func (d *Driver) Run(ctx context.Context, iterations int) (*Summary, error) {
	s := &Summary{Params: d.params}

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		res, err := d.RunIteration(ctx, i)
		s.Results = append(s.Results, res)

		if err != nil {
			return s, err
		}
	}

	return s, nil
}

// RunIteration runs one iteration. The returned error is non-nil only if the
// run must be aborted. Transfer and verification failures are reported in
// the result.
func (d *Driver) RunIteration(ctx context.Context, i int) (IterationResult, error) {
	res := IterationResult{Index: i}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res, err
	}

	if err := d.params.Validate(); err != nil {
		perr := failure.NewInvalidParamsError(err).WithStage("setup")
		res.Err = perr
		return res, perr
	}

	input, err := d.allocImage("data")
	if err != nil {
		res.Err = err
		return res, err
	}
	defer d.platform.Free(input.Pix)

	reference, err := d.allocImage("referent")
	if err != nil {
		res.Err = err
		return res, err
	}
	defer d.platform.Free(reference.Pix)

	if err := d.source.Fill(input, i); err != nil {
		res.Err = err
		return res, err
	}

	res.SWCycles = d.platform.MeasureCycles(func() {
		d.runSoftware(reference, input)
	})

	slog.Info("Software processing completed",
		"iteration", i, "cycles", res.SWCycles)

	var result accel.Image
	var hwErr error

	res.HWCycles = d.platform.MeasureCycles(func() {
		result, hwErr = d.orchestrator.Run(input, d.params)
	})

	if hwErr != nil {
		hwErr = withStage(hwErr, "hardware processing")
		res.Err = hwErr
		slog.Error("Hardware processing failed", "iteration", i, "error", hwErr)

		if failure.Fatal(hwErr) {
			return res, hwErr
		}

		return res, nil
	}
	defer d.platform.Free(result.Pix)

	slog.Info("Hardware processing completed",
		"iteration", i, "cycles", res.HWCycles)

	report, err := verify.CompareWithLimit(result, reference, d.mismatchLimit)
	if err != nil {
		res.Err = err
		return res, nil
	}

	res.Report = report
	report.WriteReport(d.reportWriter)

	if !report.Passed() {
		res.Err = report.Err()
		slog.Warn("Data check failed",
			"iteration", i, "mismatches", report.MismatchCount)
	}

	if d.output != "" {
		if err := dumpRaw(d.output, result); err != nil {
			return res, err
		}
	}

	return res, nil
}

func withStage(err error, stage string) error {
	var ferr *failure.Error
	if errors.As(err, &ferr) && ferr.Stage == "" {
		return ferr.WithStage(stage)
	}

	return err
}

func (d *Driver) allocImage(what string) (accel.Image, error) {
	buf, err := d.platform.Allocate(d.params.BufferSize())
	if err != nil {
		return accel.Image{}, failure.NewAllocationError(
			fmt.Sprintf("cannot allocate %s buffer", what), err).WithStage("setup")
	}

	img, err := accel.WrapImage(d.params.Shape, buf)
	if err != nil {
		d.platform.Free(buf)
		return accel.Image{}, failure.NewAllocationError(
			fmt.Sprintf("%s buffer too small", what), err)
	}

	return img, nil
}

// runSoftware computes what the accelerator is expected to produce.
func (d *Driver) runSoftware(dst, src accel.Image) {
	if d.params.Bypass {
		copy(dst.Pix, src.Pix)
		return
	}

	filter.Apply(dst, src, d.params)
}

func dumpRaw(path string, img accel.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output image: %w", err)
	}

	if err := accel.WriteRaw(f, img); err != nil {
		f.Close()
		return fmt.Errorf("write output image: %w", err)
	}

	return f.Close()
}
