// Package platform declares the board services the offload path consumes:
// cache maintenance, the DMA engine, interrupt registration, a cycle timer and
// DMA-capable buffer allocation.
package platform

import "github.com/sarchlab/imgaccel/accel"

// IRQ identifies an interrupt line.
type IRQ int

// Cache keeps the CPU view of a buffer coherent with what the DMA engine
// sees.
type Cache interface {
	// FlushCache writes back CPU writes so that the DMA engine observes them.
	FlushCache(buf []byte)

	// InvalidateCache drops the CPU view so that later reads observe what the
	// DMA engine wrote.
	InvalidateCache(buf []byte)
}

// Engine is a configured DMA engine.
type Engine interface {
	// StartTransfer starts moving size bytes of buf in the given direction.
	// It returns as soon as the transfer is armed.
	StartTransfer(dir accel.Direction, buf []byte, size int) error

	// Interrupt returns the interrupt line raised when a transfer in the
	// given direction completes.
	Interrupt(dir accel.Direction) IRQ
}

// InterruptController connects handlers to interrupt lines. Handlers run
// asynchronously with respect to the caller.
type InterruptController interface {
	RegisterCompletionCallback(irq IRQ, handler func()) error
	DeregisterCompletionCallback(irq IRQ)
}

// Timer measures work in timer cycles. It is only used for benchmarking.
type Timer interface {
	MeasureCycles(work func()) uint64
}

// Allocator hands out buffers the DMA engine can access.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Free(buf []byte)
}

// Platform is everything the offload path needs from a board.
type Platform interface {
	Cache
	InterruptController
	Timer
	Allocator

	// ConfigureEngine looks up and initializes the DMA engine. Calling it
	// again resets the engine.
	ConfigureEngine() (Engine, error)
}

// AcceleratorConfigurer is implemented by platforms whose accelerator takes
// its processing parameters through a control path.
type AcceleratorConfigurer interface {
	ConfigureAccelerator(params accel.ProcessingParams) error
}
