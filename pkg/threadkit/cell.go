package threadkit

import "sync/atomic"

// Cell is the single-value result storage owned by a slot.
// The launcher writes it once; readers may poll it from any goroutine.
type Cell struct {
	value atomic.Int64
	set   atomic.Bool
}

// Store writes v into the cell.
func (c *Cell) Store(v int64) {
	c.value.Store(v)
	c.set.Store(true)
}

// Load returns the stored value and whether anything was stored yet.
func (c *Cell) Load() (int64, bool) {
	if !c.set.Load() {
		return 0, false
	}
	return c.value.Load(), true
}
