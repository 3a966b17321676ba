// Package dma drives one round trip through the DMA engine: an outbound
// transfer feeding the accelerator and an inbound transfer collecting its
// result.
package dma

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/completion"
	"github.com/sarchlab/imgaccel/failure"
	"github.com/sarchlab/imgaccel/platform"
)

// ErrNotRearmed is returned when a round trip is started before the flags of
// a failed one have been reset.
var ErrNotRearmed = errors.New("previous round trip was not re-armed")

// Coordinator runs round trips. Only one round trip may be outstanding.
type Coordinator struct {
	cache  platform.Cache
	engine platform.Engine
	signal *completion.Signal

	pending bool
}

// NewCoordinator creates a coordinator. The signal's notifiers must be
// connected to the engine's interrupts by the caller.
func NewCoordinator(
	cache platform.Cache,
	engine platform.Engine,
	signal *completion.Signal,
) *Coordinator {
	return &Coordinator{
		cache:  cache,
		engine: engine,
		signal: signal,
	}
}

// Reset clears both completion flags so that a new round trip can start.
func (c *Coordinator) Reset() {
	c.signal.Reset()
	c.pending = false
}

// RoundTrip moves outSize bytes of out to the accelerator and inSize bytes of
// its result into in, waiting at most timeout for each direction to
// complete. A nil error means in holds the transferred result. On a timeout
// the content of in must not be used.
func (c *Coordinator) RoundTrip(
	out []byte, outSize int,
	in []byte, inSize int,
	timeout time.Duration,
) error {
	if c.pending {
		return ErrNotRearmed
	}

	c.pending = true

	c.cache.FlushCache(out[:outSize])
	c.cache.FlushCache(in[:inSize])

	// The receive channel is armed first so that no result can arrive
	// before someone is listening.
	if err := c.engine.StartTransfer(accel.Inbound, in, inSize); err != nil {
		slog.Error("Starting inbound DMA failed", "error", err)
		return failure.NewEngineError(accel.Inbound, err)
	}

	if err := c.engine.StartTransfer(accel.Outbound, out, outSize); err != nil {
		slog.Error("Starting outbound DMA failed", "error", err)
		return failure.NewEngineError(accel.Outbound, err)
	}

	if !c.signal.WaitFor(accel.Outbound, timeout) {
		slog.Error("Outbound DMA timed out", "timeout", timeout)
		return failure.NewTimeoutError(accel.Outbound)
	}

	slog.Debug("Outbound DMA done", "bytes", outSize)

	if !c.signal.WaitFor(accel.Inbound, timeout) {
		slog.Error("Inbound DMA timed out", "timeout", timeout)
		return failure.NewTimeoutError(accel.Inbound)
	}

	slog.Debug("Inbound DMA done", "bytes", inSize)

	c.cache.InvalidateCache(in[:inSize])
	c.pending = false

	return nil
}
