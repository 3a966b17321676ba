// Package core models the filter IP core: it streams in a full frame, filters
// it and streams the result back.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/filter"
)

// ErrBusy is returned when the core is reconfigured in the middle of a
// frame.
var ErrBusy = errors.New("filter core is processing a frame")

// Fault is a defect the core can be built with.
type Fault int

const (
	FaultNone Fault = iota
	// FaultStall makes the core accept a frame but never send the result.
	FaultStall
	// FaultCorrupt flips the bits of one result pixel.
	FaultCorrupt
)

// ParseFault parses "", "none", "stall" or "corrupt".
func ParseFault(s string) (Fault, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FaultNone, nil
	case "stall":
		return FaultStall, nil
	case "corrupt":
		return FaultCorrupt, nil
	default:
		return FaultNone, fmt.Errorf("unknown core fault %q", s)
	}
}

type phase int

const (
	phaseWaitInput phase = iota
	phaseCompute
	phaseOutput
)

type coreState struct {
	Phase     phase
	Frame     []byte
	Received  int
	Countdown int
	Result    []byte
	Sent      int
	Frames    uint64
}

// Comp is the filter IP core component.
type Comp struct {
	*sim.TickingComponent

	in        sim.Port
	out       sim.Port
	resultDst sim.RemotePort

	beatBytes int
	latency   int
	fault     Fault

	params *accel.ProcessingParams
	state  coreState
}

// Tick runs the core for one cycle.
func (c *Comp) Tick() (madeProgress bool) {
	madeProgress = c.doSend() || madeProgress
	madeProgress = c.doCompute() || madeProgress
	madeProgress = c.doRecv() || madeProgress

	return madeProgress
}

func (c *Comp) doRecv() bool {
	if c.state.Phase != phaseWaitInput {
		return false
	}

	item := c.in.PeekIncoming()
	if item == nil {
		return false
	}

	if c.params == nil {
		accel.Trace("FilterCore", "Behavior", "Unconfigured", "Name", c.Name())
		return false
	}

	msg := item.(*accel.StreamMsg)
	n := copy(c.state.Frame[c.state.Received:], msg.Data)
	c.state.Received += n
	c.in.RetrieveIncoming()

	if c.state.Received >= len(c.state.Frame) || msg.Last {
		c.state.Phase = phaseCompute
		c.state.Countdown = c.latency

		accel.Trace("FilterCore",
			"Behavior", "FrameReceived",
			"Time", float64(c.Engine.CurrentTime()*1e9),
			"Bytes", c.state.Received,
		)
	}

	return true
}

func (c *Comp) doCompute() bool {
	if c.state.Phase != phaseCompute {
		return false
	}

	if c.state.Countdown > 0 {
		c.state.Countdown--
		return true
	}

	c.state.Result = c.process(c.state.Frame)
	c.state.Sent = 0
	c.state.Phase = phaseOutput

	return true
}

func (c *Comp) process(frame []byte) []byte {
	in := accel.Image{Shape: c.params.Shape, Pix: frame}

	var result []byte
	if c.params.Bypass {
		result = append([]byte(nil), frame...)
	} else {
		result = filter.Filter(in, *c.params).Pix
	}

	if c.fault == FaultCorrupt {
		result[len(result)/2] ^= 0xff
	}

	return result
}

func (c *Comp) doSend() bool {
	if c.state.Phase != phaseOutput {
		return false
	}

	if c.fault == FaultStall {
		return false
	}

	if !c.out.CanSend() {
		return false
	}

	end := c.state.Sent + c.beatBytes
	if end > len(c.state.Result) {
		end = len(c.state.Result)
	}

	msg := accel.StreamMsgBuilder{}.
		WithSrc(c.out.AsRemote()).
		WithDst(c.resultDst).
		WithData(c.state.Result[c.state.Sent:end]).
		WithLast(end == len(c.state.Result)).
		Build()

	if err := c.out.Send(msg); err != nil {
		return false
	}

	c.state.Sent = end

	if end == len(c.state.Result) {
		c.state.Frames++
		c.startFrame()

		accel.Trace("FilterCore",
			"Behavior", "FrameSent",
			"Time", float64(c.Engine.CurrentTime()*1e9),
			"Frames", c.state.Frames,
		)
	}

	return true
}

func (c *Comp) startFrame() {
	c.state.Phase = phaseWaitInput
	c.state.Received = 0
	c.state.Result = nil
	c.state.Sent = 0

	if c.params != nil {
		c.state.Frame = make([]byte, c.params.BufferSize())
	}
}

// Configure loads the processing parameters into the core. It must be
// called from the goroutine that runs the simulation engine.
func (c *Comp) Configure(params accel.ProcessingParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	if c.state.Phase != phaseWaitInput || c.state.Received > 0 {
		return ErrBusy
	}

	c.params = &params
	c.startFrame()
	c.TickLater()

	return nil
}

// Reset drops any partially processed frame and pending input.
func (c *Comp) Reset() {
	for c.in.RetrieveIncoming() != nil {
	}

	c.startFrame()
}

// SetResultDst sets the port that result beats are sent to.
func (c *Comp) SetResultDst(dst sim.RemotePort) {
	c.resultDst = dst
}

// InPort returns the stream input port.
func (c *Comp) InPort() sim.Port {
	return c.in
}

// OutPort returns the stream output port.
func (c *Comp) OutPort() sim.Port {
	return c.out
}

// FramesProcessed returns the number of frames fully sent.
func (c *Comp) FramesProcessed() uint64 {
	return c.state.Frames
}
