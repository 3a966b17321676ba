// Package config builds the simulated board and loads benchmark settings.
package config

import (
	"fmt"
	"strings"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"
	"github.com/sarchlab/imgaccel/axidma"
	"github.com/sarchlab/imgaccel/core"
	"github.com/sarchlab/imgaccel/platform"
)

// Interrupt lines of the DMA channels.
const (
	OutboundIRQ platform.IRQ = 61
	InboundIRQ  platform.IRQ = 62
)

// Fault is a defect injected into the simulated board.
type Fault string

const (
	FaultNone              Fault = ""
	FaultStall             Fault = "stall"
	FaultCorrupt           Fault = "corrupt"
	FaultDropOutboundIRQ   Fault = "drop-outbound-irq"
	FaultDropInboundIRQ    Fault = "drop-inbound-irq"
	FaultEngineUnavailable Fault = "no-engine"
)

// ParseFault validates a fault name.
func ParseFault(s string) (Fault, error) {
	f := Fault(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FaultNone, FaultStall, FaultCorrupt,
		FaultDropOutboundIRQ, FaultDropInboundIRQ, FaultEngineUnavailable:
		return f, nil
	case "none":
		return FaultNone, nil
	default:
		return FaultNone, fmt.Errorf("unknown board fault %q", s)
	}
}

func (f Fault) coreFault() core.Fault {
	cf, err := core.ParseFault(string(f))
	if err != nil {
		// Not a core defect. The board injects it itself.
		return core.FaultNone
	}

	return cf
}

// BoardBuilder can build simulated boards.
type BoardBuilder struct {
	engine      sim.Engine
	freq        sim.Freq
	timerFreq   sim.Freq
	beatBytes   int
	latency     int
	memoryBytes int
	fault       Fault
	monitor     *monitoring.Monitor
}

// MakeBoardBuilder returns a builder with a 100 MHz fabric, an 8-byte stream
// and 64 MiB of DMA memory.
func MakeBoardBuilder() BoardBuilder {
	return BoardBuilder{
		freq:        100 * sim.MHz,
		timerFreq:   100 * sim.MHz,
		beatBytes:   8,
		latency:     1,
		memoryBytes: 64 << 20,
	}
}

// WithEngine sets the engine that drives the board simulation.
func (b BoardBuilder) WithEngine(engine sim.Engine) BoardBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the DMA engine and the filter core.
func (b BoardBuilder) WithFreq(freq sim.Freq) BoardBuilder {
	b.freq = freq
	return b
}

// WithTimerFreq sets the frequency of the benchmarking timer.
func (b BoardBuilder) WithTimerFreq(freq sim.Freq) BoardBuilder {
	b.timerFreq = freq
	return b
}

// WithBeatBytes sets the width of the stream between DMA and core.
func (b BoardBuilder) WithBeatBytes(n int) BoardBuilder {
	b.beatBytes = n
	return b
}

// WithLatency sets the compute latency of the filter core in cycles.
func (b BoardBuilder) WithLatency(cycles int) BoardBuilder {
	b.latency = cycles
	return b
}

// WithMemoryBytes sets how much DMA-capable memory can be allocated.
func (b BoardBuilder) WithMemoryBytes(n int) BoardBuilder {
	b.memoryBytes = n
	return b
}

// WithFault injects a defect.
func (b BoardBuilder) WithFault(f Fault) BoardBuilder {
	b.fault = f
	return b
}

// WithMonitor sets the monitor that monitors the board.
func (b BoardBuilder) WithMonitor(monitor *monitoring.Monitor) BoardBuilder {
	b.monitor = monitor
	return b
}

// Build creates a board and starts its hardware goroutine. Close the board
// when done.
func (b BoardBuilder) Build(name string) *Board {
	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	dma := axidma.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		WithBeatBytes(b.beatBytes).
		Build(name + ".DMA")

	ipCore := core.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		WithBeatBytes(b.beatBytes).
		WithLatency(b.latency).
		WithFault(b.fault.coreFault()).
		Build(name + ".FilterCore")

	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(b.freq).
		Build(name + ".AXIS")
	conn.PlugIn(dma.MM2SPort())
	conn.PlugIn(dma.S2MMPort())
	conn.PlugIn(ipCore.InPort())
	conn.PlugIn(ipCore.OutPort())

	dma.SetStreamDst(ipCore.InPort().AsRemote())
	ipCore.SetResultDst(dma.S2MMPort().AsRemote())

	if b.monitor != nil {
		b.monitor.RegisterEngine(engine)
		b.monitor.RegisterComponent(dma)
		b.monitor.RegisterComponent(ipCore)
	}

	board := &Board{
		name:      name,
		engine:    engine,
		freq:      b.freq,
		timerFreq: b.timerFreq,
		dma:       dma,
		core:      ipCore,
		fault:     b.fault,
		capacity:  b.memoryBytes,
		regions:   make(map[uintptr]*region),
		handlers:  make(map[platform.IRQ]func()),
		cmds:      make(chan func()),
		done:      make(chan struct{}),
	}

	dma.SetInterruptHandler(board.raise)

	go board.run()

	return board
}
