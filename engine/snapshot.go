package engine

import (
	"sync/atomic"

	"github.com/towel808/towel"
)

// Snapshot is everything the render goroutine needs from the control side:
// the parameters and the asset used for new notes. Snapshots are never
// modified after being published; a change publishes a new one.
type Snapshot struct {
	Params towel.Params
	Asset  *towel.Asset
}

type snapshotCell struct {
	p atomic.Pointer[Snapshot]
}

func (c *snapshotCell) load() *Snapshot { return c.p.Load() }

// update publishes a copy of the current snapshot modified by f. Concurrent
// writers retry until their change is applied on top of the latest snapshot.
func (c *snapshotCell) update(f func(s *Snapshot)) {
	for {
		old := c.p.Load()
		next := *old
		f(&next)
		if c.p.CompareAndSwap(old, &next) {
			return
		}
	}
}
