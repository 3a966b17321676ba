package accel

import "github.com/sarchlab/akita/v4/sim"

// StreamMsg carries one beat of a pixel stream between the DMA engine and the
// accelerator.
type StreamMsg struct {
	sim.MsgMeta

	Data []byte
	Last bool
}

// Meta returns the meta data of the msg.
func (m *StreamMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the msg with a new ID.
func (m *StreamMsg) Clone() sim.Msg {
	clone := *m
	clone.ID = sim.GetIDGenerator().Generate()
	clone.Data = append([]byte(nil), m.Data...)

	return &clone
}

// StreamMsgBuilder is a factory for StreamMsg.
type StreamMsgBuilder struct {
	src, dst sim.RemotePort
	data     []byte
	last     bool
}

// WithSrc sets the source port of the msg.
func (b StreamMsgBuilder) WithSrc(src sim.RemotePort) StreamMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the msg.
func (b StreamMsgBuilder) WithDst(dst sim.RemotePort) StreamMsgBuilder {
	b.dst = dst
	return b
}

// WithData sets the payload of the beat.
func (b StreamMsgBuilder) WithData(data []byte) StreamMsgBuilder {
	b.data = data
	return b
}

// WithLast marks the beat as the end of a frame.
func (b StreamMsgBuilder) WithLast(last bool) StreamMsgBuilder {
	b.last = last
	return b
}

// Build creates a StreamMsg.
func (b StreamMsgBuilder) Build() *StreamMsg {
	return &StreamMsg{
		MsgMeta: sim.MsgMeta{
			ID:           sim.GetIDGenerator().Generate(),
			Src:          b.src,
			Dst:          b.dst,
			TrafficBytes: len(b.data),
		},
		Data: append([]byte(nil), b.data...),
		Last: b.last,
	}
}
