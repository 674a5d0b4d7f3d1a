package engine

import (
	"sync/atomic"

	"github.com/towel808/towel"
)

type (
	// Ring is a bounded lock-free queue of MIDI events. Any number of
	// goroutines may push; the render goroutine pops. Neither side blocks or
	// allocates.
	Ring struct {
		mask  uint64
		cells []ringCell
		_     [56]byte
		enq   atomic.Uint64
		_     [56]byte
		deq   atomic.Uint64
	}

	ringCell struct {
		seq atomic.Uint64
		ev  towel.MIDIEvent
	}
)

// NewRing returns a ring holding at least capacity events.
func NewRing(capacity int) *Ring {
	size := 1
	for size < capacity {
		size <<= 1
	}
	r := &Ring{mask: uint64(size - 1), cells: make([]ringCell, size)}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// Push adds ev to the ring. It returns false if the ring is full, in which
// case the event is dropped.
func (r *Ring) Push(ev towel.MIDIEvent) bool {
	pos := r.enq.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch dif := int64(seq) - int64(pos); {
		case dif == 0:
			if r.enq.CompareAndSwap(pos, pos+1) {
				c.ev = ev
				c.seq.Store(pos + 1)
				return true
			}
			pos = r.enq.Load()
		case dif < 0:
			return false
		default:
			pos = r.enq.Load()
		}
	}
}

// Pop removes the oldest event from the ring.
func (r *Ring) Pop() (ev towel.MIDIEvent, ok bool) {
	pos := r.deq.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch dif := int64(seq) - int64(pos+1); {
		case dif == 0:
			if r.deq.CompareAndSwap(pos, pos+1) {
				ev = c.ev
				c.seq.Store(pos + r.mask + 1)
				return ev, true
			}
			pos = r.deq.Load()
		case dif < 0:
			return towel.MIDIEvent{}, false
		default:
			pos = r.deq.Load()
		}
	}
}
