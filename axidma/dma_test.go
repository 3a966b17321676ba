package axidma_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/sim/directconnection"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/axidma"
)

var _ = Describe("DMA in loopback", func() {
	var (
		engine sim.Engine
		dma    *axidma.Comp
		irqs   []accel.Direction
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		dma = axidma.MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithBeatBytes(4).
			Build("DMA")

		conn := directconnection.MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			Build("Loopback")
		conn.PlugIn(dma.MM2SPort())
		conn.PlugIn(dma.S2MMPort())
		dma.SetStreamDst(dma.S2MMPort().AsRemote())

		irqs = nil
		dma.SetInterruptHandler(func(dir accel.Direction) {
			irqs = append(irqs, dir)
		})
		dma.EnableInterrupts(accel.Outbound, true)
		dma.EnableInterrupts(accel.Inbound, true)
	})

	It("should move a buffer and raise both interrupts", func() {
		src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		dst := make([]byte, 10)

		Expect(dma.StartTransfer(accel.Inbound, dst)).To(Succeed())
		Expect(dma.StartTransfer(accel.Outbound, src)).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(dst).To(Equal(src))
		Expect(irqs).To(Equal([]accel.Direction{accel.Outbound, accel.Inbound}))
		Expect(dma.Busy(accel.Outbound)).To(BeFalse())
		Expect(dma.Busy(accel.Inbound)).To(BeFalse())

		sent, received := dma.BytesTransferred()
		Expect(sent).To(Equal(uint64(10)))
		Expect(received).To(Equal(uint64(10)))
	})

	It("should finish the inbound transfer at the last beat", func() {
		src := []byte{1, 2, 3, 4, 5, 6}
		dst := make([]byte, 12)

		Expect(dma.StartTransfer(accel.Inbound, dst)).To(Succeed())
		Expect(dma.StartTransfer(accel.Outbound, src)).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(dst[:6]).To(Equal(src))
		Expect(dst[6:]).To(Equal(make([]byte, 6)))
		Expect(irqs).To(ContainElement(accel.Inbound))
	})

	It("should hold the stream until inbound is armed", func() {
		src := []byte{1, 2, 3}
		dst := make([]byte, 3)

		Expect(dma.StartTransfer(accel.Outbound, src)).To(Succeed())
		Expect(engine.Run()).To(Succeed())
		Expect(irqs).To(Equal([]accel.Direction{accel.Outbound}))

		Expect(dma.StartTransfer(accel.Inbound, dst)).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(dst).To(Equal(src))
		Expect(irqs).To(Equal([]accel.Direction{accel.Outbound, accel.Inbound}))
	})

	It("should not raise masked interrupts", func() {
		dma.EnableInterrupts(accel.Outbound, false)

		Expect(dma.StartTransfer(accel.Inbound, make([]byte, 4))).To(Succeed())
		Expect(dma.StartTransfer(accel.Outbound, []byte{1, 2, 3, 4})).To(Succeed())
		Expect(engine.Run()).To(Succeed())

		Expect(irqs).To(Equal([]accel.Direction{accel.Inbound}))
	})

	It("should reject a second transfer while busy", func() {
		Expect(dma.StartTransfer(accel.Inbound, make([]byte, 4))).To(Succeed())
		Expect(dma.StartTransfer(accel.Inbound, make([]byte, 4))).
			To(MatchError(axidma.ErrBusy))
	})

	It("should reject empty transfers", func() {
		Expect(dma.StartTransfer(accel.Outbound, nil)).
			To(MatchError(axidma.ErrEmptyTransfer))
	})

	It("should abort transfers on reset", func() {
		Expect(dma.StartTransfer(accel.Inbound, make([]byte, 4))).To(Succeed())

		dma.Reset()

		Expect(dma.Busy(accel.Inbound)).To(BeFalse())
		Expect(dma.StartTransfer(accel.Inbound, make([]byte, 4))).To(Succeed())
	})
})
