package axidma

import "github.com/sarchlab/akita/v4/sim"

// Builder can create DMA engines.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	beatBytes  int
	bufferSize int
}

// MakeBuilder returns a builder with an 8-byte stream and 4-entry port
// buffers.
func MakeBuilder() Builder {
	return Builder{
		freq:       100 * sim.MHz,
		beatBytes:  8,
		bufferSize: 4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the DMA engine.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBeatBytes sets the width of the stream interface.
func (b Builder) WithBeatBytes(n int) Builder {
	if n <= 0 {
		panic("beat width must be positive")
	}

	b.beatBytes = n

	return b
}

// WithBufferSize sets the number of beats each port can hold.
func (b Builder) WithBufferSize(n int) Builder {
	b.bufferSize = n
	return b
}

// Build creates a DMA engine.
func (b Builder) Build(name string) *Comp {
	c := &Comp{
		beatBytes: b.beatBytes,
	}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.mm2sPort = sim.NewPort(c, b.bufferSize, b.bufferSize, name+".MM2S")
	c.AddPort("MM2S", c.mm2sPort)

	c.s2mmPort = sim.NewPort(c, b.bufferSize, b.bufferSize, name+".S2MM")
	c.AddPort("S2MM", c.s2mmPort)

	return c
}
