// Package completion provides the one-shot flags through which DMA interrupt
// handlers report the end of a transfer.
package completion

import (
	"time"

	"github.com/sarchlab/imgaccel/accel"
)

// Signal holds one completion flag per transfer direction. Each flag has a
// single writer (the interrupt source of its direction) and a single reader
// (the transfer coordinator). A flag is a channel with room for one event, so
// setting it never blocks and reading it clears it.
type Signal struct {
	done [2]chan struct{}
}

// New creates a Signal with both flags pending.
func New() *Signal {
	return &Signal{
		done: [2]chan struct{}{
			make(chan struct{}, 1),
			make(chan struct{}, 1),
		},
	}
}

// Reset clears both flags. It must be called before a new transfer pair is
// started.
func (s *Signal) Reset() {
	for _, c := range s.done {
		select {
		case <-c:
		default:
		}
	}
}

// Notify sets the flag of the given direction. Setting a flag that is
// already set has no effect.
func (s *Signal) Notify(dir accel.Direction) {
	select {
	case s.done[dir] <- struct{}{}:
	default:
	}
}

// Notifier returns the handle an interrupt source uses to set its flag.
func (s *Signal) Notifier(dir accel.Direction) func() {
	c := s.done[dir]

	return func() {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// WaitFor blocks until the flag of dir is set or the timeout expires. It
// reports whether the flag was set, consuming it if so.
func (s *Signal) WaitFor(dir accel.Direction, timeout time.Duration) bool {
	select {
	case <-s.done[dir]:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done[dir]:
		return true
	case <-timer.C:
		return false
	}
}

// IsSet reports whether the flag of dir is set without consuming it.
func (s *Signal) IsSet(dir accel.Direction) bool {
	return len(s.done[dir]) > 0
}
