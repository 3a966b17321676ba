package dma

import (
	"errors"
	"time"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/completion"
	"github.com/sarchlab/imgaccel/failure"
)

var _ = Describe("Coordinator", func() {
	const timeout = 20 * time.Millisecond

	var (
		mockCtrl    *gomock.Controller
		cache       *MockCache
		engine      *MockEngine
		signal      *completion.Signal
		coordinator *Coordinator
		out, in     []byte
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		cache = NewMockCache(mockCtrl)
		engine = NewMockEngine(mockCtrl)
		signal = completion.New()
		coordinator = NewCoordinator(cache, engine, signal)

		out = []byte{1, 2, 3, 4}
		in = []byte{9, 9, 9, 9}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	completeOn := func(dir accel.Direction) func(accel.Direction, []byte, int) error {
		return func(accel.Direction, []byte, int) error {
			signal.Notify(dir)
			return nil
		}
	}

	It("should flush, arm inbound, send outbound and invalidate in order", func() {
		gomock.InOrder(
			cache.EXPECT().FlushCache(out),
			cache.EXPECT().FlushCache(in),
			engine.EXPECT().StartTransfer(accel.Inbound, in, 4).
				DoAndReturn(completeOn(accel.Inbound)),
			engine.EXPECT().StartTransfer(accel.Outbound, out, 4).
				DoAndReturn(completeOn(accel.Outbound)),
			cache.EXPECT().InvalidateCache(in),
		)

		Expect(coordinator.RoundTrip(out, 4, in, 4, timeout)).To(Succeed())
	})

	It("should only maintain the transferred part of the buffers", func() {
		gomock.InOrder(
			cache.EXPECT().FlushCache(out[:2]),
			cache.EXPECT().FlushCache(in[:3]),
			engine.EXPECT().StartTransfer(accel.Inbound, in, 3).
				DoAndReturn(completeOn(accel.Inbound)),
			engine.EXPECT().StartTransfer(accel.Outbound, out, 2).
				DoAndReturn(completeOn(accel.Outbound)),
			cache.EXPECT().InvalidateCache(in[:3]),
		)

		Expect(coordinator.RoundTrip(out, 2, in, 3, timeout)).To(Succeed())
	})

	It("should accept completions from another goroutine", func() {
		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(nil)
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).
			DoAndReturn(func(accel.Direction, []byte, int) error {
				go func() {
					time.Sleep(time.Millisecond)
					signal.Notify(accel.Outbound)
					signal.Notify(accel.Inbound)
				}()
				return nil
			})
		cache.EXPECT().InvalidateCache(in)

		Expect(coordinator.RoundTrip(out, 4, in, 4, time.Second)).To(Succeed())
	})

	It("should not start outbound if inbound cannot be started", func() {
		cause := errors.New("halted")

		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(cause)

		err := coordinator.RoundTrip(out, 4, in, 4, timeout)

		Expect(failure.Is(err, failure.KindEngine)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())
	})

	It("should report an outbound engine error", func() {
		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(nil)
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).
			Return(errors.New("busy"))

		err := coordinator.RoundTrip(out, 4, in, 4, timeout)

		var ferr *failure.Error
		Expect(errors.As(err, &ferr)).To(BeTrue())
		Expect(ferr.Kind).To(Equal(failure.KindEngine))
		Expect(*ferr.Direction).To(Equal(accel.Outbound))
	})

	It("should time out on outbound without waiting for inbound", func() {
		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).
			DoAndReturn(completeOn(accel.Inbound))
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).Return(nil)

		err := coordinator.RoundTrip(out, 4, in, 4, timeout)

		Expect(failure.IsTimeout(err, accel.Outbound)).To(BeTrue())
		Expect(signal.IsSet(accel.Inbound)).To(BeTrue())
	})

	It("should time out on inbound within the timeout and not invalidate", func() {
		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(nil)
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).
			DoAndReturn(completeOn(accel.Outbound))

		start := time.Now()
		err := coordinator.RoundTrip(out, 4, in, 4, timeout)
		elapsed := time.Since(start)

		Expect(failure.IsTimeout(err, accel.Inbound)).To(BeTrue())
		Expect(elapsed).To(BeNumerically(">=", timeout))
		Expect(elapsed).To(BeNumerically("<", timeout+time.Second))
	})

	It("should refuse a new round trip until reset", func() {
		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(nil)
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).Return(nil)

		err := coordinator.RoundTrip(out, 4, in, 4, time.Millisecond)
		Expect(failure.IsTimeout(err, accel.Outbound)).To(BeTrue())

		err = coordinator.RoundTrip(out, 4, in, 4, time.Millisecond)
		Expect(err).To(MatchError(ErrNotRearmed))

		coordinator.Reset()

		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).
			DoAndReturn(completeOn(accel.Inbound))
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).
			DoAndReturn(completeOn(accel.Outbound))
		cache.EXPECT().InvalidateCache(in)

		Expect(coordinator.RoundTrip(out, 4, in, 4, timeout)).To(Succeed())
	})

	It("should not take stale completions after a reset", func() {
		signal.Notify(accel.Outbound)
		signal.Notify(accel.Inbound)
		coordinator.Reset()

		cache.EXPECT().FlushCache(gomock.Any()).Times(2)
		engine.EXPECT().StartTransfer(accel.Inbound, in, 4).Return(nil)
		engine.EXPECT().StartTransfer(accel.Outbound, out, 4).Return(nil)

		err := coordinator.RoundTrip(out, 4, in, 4, time.Millisecond)
		Expect(failure.IsTimeout(err, accel.Outbound)).To(BeTrue())
	})
})
