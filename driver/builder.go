package driver

import (
	"io"

	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/offload"
	"github.com/sarchlab/imgaccel/platform"
	"github.com/sarchlab/imgaccel/verify"
)

// Builder can build drivers.
type Builder struct {
	platform      platform.Platform
	orchestrator  *offload.Orchestrator
	params        accel.ProcessingParams
	source        Source
	mismatchLimit int
	output        string
	reportWriter  io.Writer
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		source:        PatternSource{Pattern: "increasing"},
		mismatchLimit: verify.DefaultMismatchLimit,
	}
}

// WithPlatform sets the board the driver runs on.
func (b Builder) WithPlatform(p platform.Platform) Builder {
	b.platform = p
	return b
}

// WithOrchestrator sets the orchestrator used for the hardware pass. By
// default one with the default timeout is created.
func (b Builder) WithOrchestrator(o *offload.Orchestrator) Builder {
	b.orchestrator = o
	return b
}

// WithParams sets the processing parameters.
func (b Builder) WithParams(p accel.ProcessingParams) Builder {
	b.params = p
	return b
}

// WithSource sets where input images come from.
func (b Builder) WithSource(s Source) Builder {
	b.source = s
	return b
}

// WithMismatchLimit sets how many mismatches a report records.
func (b Builder) WithMismatchLimit(n int) Builder {
	b.mismatchLimit = n
	return b
}

// WithOutput sets a file that receives the raw accelerator output of each
// iteration.
func (b Builder) WithOutput(path string) Builder {
	b.output = path
	return b
}

// WithReportWriter sets where data check reports are written.
func (b Builder) WithReportWriter(w io.Writer) Builder {
	b.reportWriter = w
	return b
}

// Build creates a driver.
func (b Builder) Build() *Driver {
	if b.platform == nil {
		panic("driver: platform is not set")
	}

	if b.source == nil {
		panic("driver: source is not set")
	}

	o := b.orchestrator
	if o == nil {
		o = offload.MakeBuilder().WithPlatform(b.platform).Build()
	}

	w := b.reportWriter
	if w == nil {
		w = io.Discard
	}

	return &Driver{
		platform:      b.platform,
		orchestrator:  o,
		params:        b.params,
		source:        b.source,
		mismatchLimit: b.mismatchLimit,
		output:        b.output,
		reportWriter:  w,
	}
}
