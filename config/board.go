package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/axidma"
	"github.com/sarchlab/imgaccel/core"
	"github.com/sarchlab/imgaccel/platform"
)

// ErrOutOfMemory is returned when an allocation exceeds the board memory.
var ErrOutOfMemory = errors.New("out of DMA memory")

// ErrClosed is returned by operations on a closed board.
var ErrClosed = errors.New("board is closed")

// ErrNotConfigured is returned when a transfer is started before the DMA
// engine is configured.
var ErrNotConfigured = errors.New("DMA engine is not configured")

// region is one allocation. The CPU reads and writes cpu; the DMA engine
// only sees ddr. Cache maintenance copies between the two.
type region struct {
	cpu []byte
	ddr []byte
}

// A Board is a simulated FPGA board: a DMA engine streaming to a filter core,
// memory behind a CPU cache and an interrupt controller. The simulation runs
// on its own goroutine, so interrupt handlers run asynchronously with respect
// to the caller, as on hardware.
type Board struct {
	name      string
	engine    sim.Engine
	freq      sim.Freq
	timerFreq sim.Freq
	dma       *axidma.Comp
	core      *core.Comp
	fault     Fault

	cmds      chan func()
	done      chan struct{}
	closeLock sync.RWMutex
	closed    bool

	memLock  sync.Mutex
	regions  map[uintptr]*region
	used     int
	capacity int

	irqLock  sync.Mutex
	handlers map[platform.IRQ]func()

	configured bool
}

var _ platform.Platform = (*Board)(nil)
var _ platform.AcceleratorConfigurer = (*Board)(nil)

func (b *Board) run() {
	defer close(b.done)

	for cmd := range b.cmds {
		cmd()

		if err := b.engine.Run(); err != nil {
			slog.Error("Simulation failed", "board", b.name, "error", err)
		}
	}
}

// exec runs f on the hardware goroutine and waits for its result. The
// simulation continues after f returns.
func (b *Board) exec(f func() error) error {
	b.closeLock.RLock()
	defer b.closeLock.RUnlock()

	if b.closed {
		return ErrClosed
	}

	errc := make(chan error, 1)
	b.cmds <- func() { errc <- f() }

	return <-errc
}

// Close stops the hardware goroutine.
func (b *Board) Close() {
	b.closeLock.Lock()
	if b.closed {
		b.closeLock.Unlock()
		return
	}

	b.closed = true
	close(b.cmds)
	b.closeLock.Unlock()

	<-b.done
}

// Name returns the name of the board.
func (b *Board) Name() string {
	return b.name
}

// Allocate returns a zeroed DMA-capable buffer.
func (b *Board) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid allocation size %d", size)
	}

	b.memLock.Lock()
	defer b.memLock.Unlock()

	if b.used+size > b.capacity {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrOutOfMemory, size, b.used, b.capacity)
	}

	r := &region{
		cpu: make([]byte, size),
		ddr: make([]byte, size),
	}
	b.regions[baseAddr(r.cpu)] = r
	b.used += size

	return r.cpu, nil
}

// Free releases a buffer returned by Allocate.
func (b *Board) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}

	b.memLock.Lock()
	defer b.memLock.Unlock()

	addr := baseAddr(buf)

	r, ok := b.regions[addr]
	if !ok {
		slog.Warn("Freeing unknown buffer", "board", b.name)
		return
	}

	delete(b.regions, addr)
	b.used -= len(r.cpu)
}

// MemoryInUse returns the number of allocated bytes.
func (b *Board) MemoryInUse() int {
	b.memLock.Lock()
	defer b.memLock.Unlock()

	return b.used
}

// FlushCache makes CPU writes to buf visible to the DMA engine.
func (b *Board) FlushCache(buf []byte) {
	r, off, ok := b.lookup(buf)
	if !ok {
		accel.Trace("Cache", "Behavior", "FlushUnknown", "Bytes", len(buf))
		return
	}

	copy(r.ddr[off:off+len(buf)], buf)
}

// InvalidateCache makes DMA writes to buf visible to the CPU.
func (b *Board) InvalidateCache(buf []byte) {
	r, off, ok := b.lookup(buf)
	if !ok {
		accel.Trace("Cache", "Behavior", "InvalidateUnknown", "Bytes", len(buf))
		return
	}

	copy(buf, r.ddr[off:off+len(buf)])
}

func (b *Board) lookup(buf []byte) (*region, int, bool) {
	if len(buf) == 0 {
		return nil, 0, false
	}

	addr := baseAddr(buf)

	b.memLock.Lock()
	defer b.memLock.Unlock()

	for base, r := range b.regions {
		if addr >= base && addr+uintptr(len(buf)) <= base+uintptr(len(r.cpu)) {
			return r, int(addr - base), true
		}
	}

	return nil, 0, false
}

func baseAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

// ConfigureEngine resets the DMA engine and the filter core and enables the
// completion interrupts.
func (b *Board) ConfigureEngine() (platform.Engine, error) {
	if b.fault == FaultEngineUnavailable {
		return nil, fmt.Errorf("no DMA engine found on %s", b.name)
	}

	err := b.exec(func() error {
		b.dma.Reset()
		b.core.Reset()
		b.dma.EnableInterrupts(accel.Outbound, true)
		b.dma.EnableInterrupts(accel.Inbound, true)
		b.configured = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	return engineHandle{board: b}, nil
}

// ConfigureAccelerator loads the processing parameters into the filter
// core.
func (b *Board) ConfigureAccelerator(params accel.ProcessingParams) error {
	return b.exec(func() error {
		return b.core.Configure(params)
	})
}

func (b *Board) startTransfer(dir accel.Direction, buf []byte, size int) error {
	if size <= 0 || size > len(buf) {
		return fmt.Errorf("invalid transfer size %d for a %d-byte buffer", size, len(buf))
	}

	r, off, ok := b.lookup(buf[:size])
	if !ok {
		return fmt.Errorf("buffer is not DMA memory")
	}

	mem := r.ddr[off : off+size]

	return b.exec(func() error {
		if !b.configured {
			return ErrNotConfigured
		}

		return b.dma.StartTransfer(dir, mem)
	})
}

// RegisterCompletionCallback connects a handler to an interrupt line.
func (b *Board) RegisterCompletionCallback(irq platform.IRQ, handler func()) error {
	if irq != OutboundIRQ && irq != InboundIRQ {
		return fmt.Errorf("no interrupt line %d", irq)
	}

	b.irqLock.Lock()
	defer b.irqLock.Unlock()

	if _, ok := b.handlers[irq]; ok {
		return fmt.Errorf("interrupt %d already has a handler", irq)
	}

	b.handlers[irq] = handler

	return nil
}

// DeregisterCompletionCallback disconnects the handler of an interrupt line.
func (b *Board) DeregisterCompletionCallback(irq platform.IRQ) {
	b.irqLock.Lock()
	defer b.irqLock.Unlock()

	delete(b.handlers, irq)
}

// raise dispatches a DMA interrupt. It runs on the hardware goroutine.
func (b *Board) raise(dir accel.Direction) {
	irq := irqOf(dir)

	if (dir == accel.Outbound && b.fault == FaultDropOutboundIRQ) ||
		(dir == accel.Inbound && b.fault == FaultDropInboundIRQ) {
		accel.Trace("IRQ", "Behavior", "Dropped", "IRQ", int(irq))
		return
	}

	b.irqLock.Lock()
	handler := b.handlers[irq]
	b.irqLock.Unlock()

	if handler == nil {
		accel.Trace("IRQ", "Behavior", "Spurious", "IRQ", int(irq))
		return
	}

	handler()
}

func irqOf(dir accel.Direction) platform.IRQ {
	if dir == accel.Outbound {
		return OutboundIRQ
	}

	return InboundIRQ
}

// MeasureCycles runs work and returns its duration in timer cycles.
func (b *Board) MeasureCycles(work func()) uint64 {
	start := time.Now()
	work()
	elapsed := time.Since(start)

	return uint64(elapsed.Seconds() * float64(b.timerFreq))
}

// SimulatedCycles returns the number of fabric cycles simulated so far.
func (b *Board) SimulatedCycles() uint64 {
	var now sim.VTimeInSec

	if err := b.exec(func() error {
		now = b.engine.CurrentTime()
		return nil
	}); err != nil {
		return 0
	}

	return uint64(float64(now) * float64(b.freq))
}

// FramesProcessed returns the number of frames the filter core has sent.
func (b *Board) FramesProcessed() uint64 {
	var n uint64

	_ = b.exec(func() error {
		n = b.core.FramesProcessed()
		return nil
	})

	return n
}

type engineHandle struct {
	board *Board
}

func (h engineHandle) StartTransfer(dir accel.Direction, buf []byte, size int) error {
	return h.board.startTransfer(dir, buf, size)
}

func (h engineHandle) Interrupt(dir accel.Direction) platform.IRQ {
	return irqOf(dir)
}
