// Package axidma models a DMA engine in simple mode. The MM2S channel streams
// a memory region to a stream port and the S2MM channel writes an incoming
// stream into a memory region. Each channel raises an interrupt when its
// transfer completes.
package axidma

import (
	"errors"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/imgaccel/accel"
)

// ErrBusy is returned when a channel is started while a transfer is still in
// flight.
var ErrBusy = errors.New("DMA channel busy")

// ErrEmptyTransfer is returned for zero-length transfers.
var ErrEmptyTransfer = errors.New("DMA transfer length must be positive")

// Comp is the DMA engine component.
type Comp struct {
	*sim.TickingComponent

	mm2sPort  sim.Port
	s2mmPort  sim.Port
	streamDst sim.RemotePort

	beatBytes  int
	irqEnabled [2]bool
	interrupt  func(dir accel.Direction)

	mm2s *mm2sTask
	s2mm *s2mmTask

	bytesSent     uint64
	bytesReceived uint64
}

type mm2sTask struct {
	mem    []byte
	offset int
}

func (t *mm2sTask) isFinished() bool {
	return t.offset >= len(t.mem)
}

type s2mmTask struct {
	mem    []byte
	offset int
}

func (t *s2mmTask) isFinished() bool {
	return t.offset >= len(t.mem)
}

// Tick moves at most one beat on each channel.
func (c *Comp) Tick() (madeProgress bool) {
	madeProgress = c.doMM2S() || madeProgress
	madeProgress = c.doS2MM() || madeProgress

	return madeProgress
}

func (c *Comp) doMM2S() bool {
	task := c.mm2s
	if task == nil {
		return false
	}

	if !c.mm2sPort.CanSend() {
		return false
	}

	end := task.offset + c.beatBytes
	if end > len(task.mem) {
		end = len(task.mem)
	}

	msg := accel.StreamMsgBuilder{}.
		WithSrc(c.mm2sPort.AsRemote()).
		WithDst(c.streamDst).
		WithData(task.mem[task.offset:end]).
		WithLast(end == len(task.mem)).
		Build()

	if err := c.mm2sPort.Send(msg); err != nil {
		return false
	}

	c.bytesSent += uint64(end - task.offset)
	task.offset = end

	accel.Trace("DMA",
		"Behavior", "MM2S",
		"Time", float64(c.Engine.CurrentTime()*1e9),
		"Offset", task.offset,
		"Last", msg.Last,
	)

	if task.isFinished() {
		c.mm2s = nil
		c.raise(accel.Outbound)
	}

	return true
}

func (c *Comp) doS2MM() bool {
	task := c.s2mm
	if task == nil {
		return false
	}

	item := c.s2mmPort.PeekIncoming()
	if item == nil {
		return false
	}

	msg := item.(*accel.StreamMsg)
	n := copy(task.mem[task.offset:], msg.Data)
	task.offset += n
	c.bytesReceived += uint64(n)
	c.s2mmPort.RetrieveIncoming()

	accel.Trace("DMA",
		"Behavior", "S2MM",
		"Time", float64(c.Engine.CurrentTime()*1e9),
		"Offset", task.offset,
		"Last", msg.Last,
	)

	if task.isFinished() || msg.Last {
		c.s2mm = nil
		c.raise(accel.Inbound)
	}

	return true
}

func (c *Comp) raise(dir accel.Direction) {
	if !c.irqEnabled[dir] || c.interrupt == nil {
		accel.Trace("DMA", "Behavior", "IRQMasked", "Channel", dir.Name())
		return
	}

	accel.Trace("DMA",
		"Behavior", "IRQ",
		"Time", float64(c.Engine.CurrentTime()*1e9),
		"Channel", dir.Name(),
	)
	c.interrupt(dir)
}

// StartTransfer arms a channel. Outbound transfers read mem, inbound
// transfers fill it. It must be called from the goroutine that runs the
// simulation engine.
func (c *Comp) StartTransfer(dir accel.Direction, mem []byte) error {
	if len(mem) == 0 {
		return ErrEmptyTransfer
	}

	switch dir {
	case accel.Outbound:
		if c.mm2s != nil {
			return ErrBusy
		}

		c.mm2s = &mm2sTask{mem: mem}
	case accel.Inbound:
		if c.s2mm != nil {
			return ErrBusy
		}

		c.s2mm = &s2mmTask{mem: mem}
	default:
		panic("invalid direction")
	}

	c.TickLater()

	return nil
}

// Busy reports whether a channel has a transfer in flight.
func (c *Comp) Busy(dir accel.Direction) bool {
	if dir == accel.Outbound {
		return c.mm2s != nil
	}

	return c.s2mm != nil
}

// EnableInterrupts turns the completion interrupt of a channel on or off.
func (c *Comp) EnableInterrupts(dir accel.Direction, enabled bool) {
	c.irqEnabled[dir] = enabled
}

// SetInterruptHandler sets the function called when a channel completes.
func (c *Comp) SetInterruptHandler(handler func(dir accel.Direction)) {
	c.interrupt = handler
}

// SetStreamDst sets the port that MM2S beats are sent to.
func (c *Comp) SetStreamDst(dst sim.RemotePort) {
	c.streamDst = dst
}

// MM2SPort returns the port that streams memory out.
func (c *Comp) MM2SPort() sim.Port {
	return c.mm2sPort
}

// S2MMPort returns the port that receives the stream written to memory.
func (c *Comp) S2MMPort() sim.Port {
	return c.s2mmPort
}

// Reset aborts both channels and drops any beat waiting at S2MM.
func (c *Comp) Reset() {
	c.mm2s = nil
	c.s2mm = nil

	for c.s2mmPort.RetrieveIncoming() != nil {
	}
}

// BytesTransferred returns the number of bytes moved by each channel since
// the component was built.
func (c *Comp) BytesTransferred() (sent, received uint64) {
	return c.bytesSent, c.bytesReceived
}
