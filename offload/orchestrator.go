// Package offload runs a filtering job on the hardware accelerator.
package offload

import (
	"log/slog"
	"time"

	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/completion"
	"github.com/sarchlab/imgaccel/dma"
	"github.com/sarchlab/imgaccel/failure"
	"github.com/sarchlab/imgaccel/platform"
)

// TickDuration is the length of one timeout tick.
const TickDuration = time.Microsecond

// DefaultTimeoutTicks is the per-direction transfer timeout budget.
const DefaultTimeoutTicks = 100000

// DefaultTimeout is DefaultTimeoutTicks expressed as a duration.
const DefaultTimeout = DefaultTimeoutTicks * TickDuration

// Orchestrator configures the DMA engine and drives a full round trip through
// the accelerator.
type Orchestrator struct {
	platform platform.Platform
	signal   *completion.Signal
	timeout  time.Duration

	engine      platform.Engine
	coordinator *dma.Coordinator
}

// Builder creates an Orchestrator.
type Builder struct {
	platform platform.Platform
	signal   *completion.Signal
	timeout  time.Duration
}

// MakeBuilder returns a builder with the default timeout.
func MakeBuilder() Builder {
	return Builder{timeout: DefaultTimeout}
}

// WithPlatform sets the board the orchestrator runs on.
func (b Builder) WithPlatform(p platform.Platform) Builder {
	b.platform = p
	return b
}

// WithSignal sets the completion signal. A new one is created if none is
// given.
func (b Builder) WithSignal(s *completion.Signal) Builder {
	b.signal = s
	return b
}

// WithTimeout sets the per-direction transfer timeout.
func (b Builder) WithTimeout(timeout time.Duration) Builder {
	b.timeout = timeout
	return b
}

// Build creates the orchestrator.
func (b Builder) Build() *Orchestrator {
	if b.platform == nil {
		panic("offload: platform is not set")
	}

	if b.timeout <= 0 {
		panic("offload: timeout must be positive")
	}

	signal := b.signal
	if signal == nil {
		signal = completion.New()
	}

	return &Orchestrator{
		platform: b.platform,
		signal:   signal,
		timeout:  b.timeout,
	}
}

// Timeout returns the per-direction transfer timeout.
func (o *Orchestrator) Timeout() time.Duration {
	return o.timeout
}

// Run sends input through the accelerator and returns the result image. The
// result buffer comes from the platform allocator; the caller frees it. No
// retry is attempted on failure.
func (o *Orchestrator) Run(
	input accel.Image,
	params accel.ProcessingParams,
) (accel.Image, error) {
	if err := params.Validate(); err != nil {
		return accel.Image{}, failure.NewInvalidParamsError(err)
	}

	if input.Shape != params.Shape {
		return accel.Image{}, failure.NewShapeMismatchError(input.Shape, params.Shape)
	}

	if err := o.attach(); err != nil {
		return accel.Image{}, err
	}

	if c, ok := o.platform.(platform.AcceleratorConfigurer); ok {
		if err := c.ConfigureAccelerator(params); err != nil {
			return accel.Image{}, failure.NewEngineConfigurationError(
				"accelerator configuration failed", err)
		}
	}

	size := params.BufferSize()

	buf, err := o.platform.Allocate(size)
	if err != nil {
		return accel.Image{}, failure.NewAllocationError("cannot allocate result buffer", err)
	}

	result, err := accel.WrapImage(params.Shape, buf)
	if err != nil {
		o.platform.Free(buf)
		return accel.Image{}, failure.NewAllocationError("result buffer too small", err)
	}

	if err := o.transfer(input, result, size); err != nil {
		o.platform.Free(buf)
		return accel.Image{}, err
	}

	return result, nil
}

func (o *Orchestrator) transfer(input, result accel.Image, size int) error {
	txIRQ := o.engine.Interrupt(accel.Outbound)
	rxIRQ := o.engine.Interrupt(accel.Inbound)

	if err := o.platform.RegisterCompletionCallback(
		txIRQ, o.signal.Notifier(accel.Outbound)); err != nil {
		o.detach()
		return failure.NewEngineConfigurationError("cannot register outbound interrupt", err)
	}
	defer o.platform.DeregisterCompletionCallback(txIRQ)

	if err := o.platform.RegisterCompletionCallback(
		rxIRQ, o.signal.Notifier(accel.Inbound)); err != nil {
		o.detach()
		return failure.NewEngineConfigurationError("cannot register inbound interrupt", err)
	}
	defer o.platform.DeregisterCompletionCallback(rxIRQ)

	o.coordinator.Reset()

	err := o.coordinator.RoundTrip(input.Pix, size, result.Pix, size, o.timeout)
	if err != nil {
		// The engine state is unknown after a failed round trip. It is
		// configured from scratch on the next run.
		o.detach()
		return err
	}

	return nil
}

func (o *Orchestrator) attach() error {
	if o.engine != nil {
		return nil
	}

	engine, err := o.platform.ConfigureEngine()
	if err != nil {
		return failure.NewEngineConfigurationError("DMA configuration failed", err)
	}

	o.engine = engine
	o.coordinator = dma.NewCoordinator(o.platform, engine, o.signal)

	slog.Debug("DMA engine configured")

	return nil
}

func (o *Orchestrator) detach() {
	o.engine = nil
	o.coordinator = nil
}
