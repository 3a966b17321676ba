package core

import "github.com/sarchlab/akita/v4/sim"

// Builder can create filter cores.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	beatBytes  int
	latency    int
	bufferSize int
	fault      Fault
}

// MakeBuilder returns a builder with an 8-byte stream and a one-cycle
// compute latency.
func MakeBuilder() Builder {
	return Builder{
		freq:       100 * sim.MHz,
		beatBytes:  8,
		latency:    1,
		bufferSize: 4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the core.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBeatBytes sets the width of the stream interfaces.
func (b Builder) WithBeatBytes(n int) Builder {
	if n <= 0 {
		panic("beat width must be positive")
	}

	b.beatBytes = n

	return b
}

// WithLatency sets the number of cycles between the last input beat and the
// first output beat.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// WithBufferSize sets the number of beats each port can hold.
func (b Builder) WithBufferSize(n int) Builder {
	b.bufferSize = n
	return b
}

// WithFault builds a defective core.
func (b Builder) WithFault(f Fault) Builder {
	b.fault = f
	return b
}

// Build creates a filter core.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		beatBytes: b.beatBytes,
		latency:   b.latency,
		fault:     b.fault,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.in = sim.NewPort(c, b.bufferSize, b.bufferSize, name+".In")
	c.AddPort("In", c.in)

	c.out = sim.NewPort(c, b.bufferSize, b.bufferSize, name+".Out")
	c.AddPort("Out", c.out)

	return c
}
