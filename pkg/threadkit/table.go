package threadkit

// DefaultBlockSize is the number of slots added each time the table grows.
const DefaultBlockSize = 8

// Table is a growable, index-addressed collection of slots.
//
// Slots are handed out in allocation order and never recycled: once a slot
// is freed its index stays empty. Table is not safe for concurrent use; the
// Registry serializes access to it.
type Table struct {
	slots     []*Slot // len(slots) is the capacity
	active    int     // next unused index
	blockSize int
	maxSlots  int
	blocks    int
}

// NewTable creates a table with one block of capacity already allocated.
// blockSize <= 0 selects DefaultBlockSize. maxSlots limits how many slots
// may ever be allocated; 0 means no limit.
func NewTable(blockSize, maxSlots int) *Table {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if maxSlots < 0 {
		maxSlots = 0
	}
	return &Table{
		slots:     make([]*Slot, blockSize),
		blockSize: blockSize,
		maxSlots:  maxSlots,
		blocks:    1,
	}
}

// Allocate takes the next unused slot, growing the table by one block when
// it is full. The returned slot has its index, target and a fresh result
// cell set; grew reports whether a growth event happened.
func (t *Table) Allocate(target Target) (slot *Slot, grew bool, err error) {
	if t.maxSlots > 0 && t.active >= t.maxSlots {
		return nil, false, &ExhaustedError{Op: "limit", Capacity: len(t.slots)}
	}
	if t.active == len(t.slots) {
		if err := t.grow(); err != nil {
			return nil, false, err
		}
		grew = true
	}

	slot = &Slot{
		index:  uint32(t.active),
		target: target,
		result: &Cell{},
	}
	t.slots[t.active] = slot
	t.active++
	return slot, grew, nil
}

func (t *Table) grow() error {
	newCap := len(t.slots) + t.blockSize
	if newCap > int(^uint32(0)) {
		return &ExhaustedError{Op: "grow", Capacity: len(t.slots)}
	}
	grown := make([]*Slot, newCap)
	copy(grown, t.slots)
	t.slots = grown
	t.blocks++
	return nil
}

// Lookup returns the occupied slot at index. Empty, out of range and
// mismatched entries all report not found.
func (t *Table) Lookup(index uint32) (*Slot, bool) {
	if int64(index) >= int64(t.active) {
		return nil, false
	}
	s := t.slots[index]
	if s == nil || s.index != index {
		return nil, false
	}
	return s, true
}

// Free releases the slot at index and marks it empty.
// It reports false if the slot was not occupied.
func (t *Table) Free(index uint32) bool {
	s, ok := t.Lookup(index)
	if !ok {
		return false
	}
	s.release()
	t.slots[index] = nil
	return true
}

// Teardown releases every occupied slot and drops the table storage.
// It is safe to call more than once.
func (t *Table) Teardown() {
	for i, s := range t.slots {
		if s == nil {
			continue
		}
		s.release()
		t.slots[i] = nil
	}
	t.slots = nil
	t.active = 0
}

// Occupied returns the occupied slots in index order.
func (t *Table) Occupied() []*Slot {
	out := make([]*Slot, 0, t.active)
	for i := 0; i < t.active; i++ {
		if s := t.slots[i]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of slots handed out so far, including freed ones.
func (t *Table) Len() int { return t.active }

// Cap returns the allocated capacity.
func (t *Table) Cap() int { return len(t.slots) }

// Blocks returns how many blocks have been allocated, the initial one included.
func (t *Table) Blocks() int { return t.blocks }

// Grows returns the number of growth events after the initial block.
func (t *Table) Grows() int { return t.blocks - 1 }
