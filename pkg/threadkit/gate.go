package threadkit

import "sync"

// gate implements suspend counting for one thread.
//
// The thread may only run user code while count is zero. A new gate starts
// with count 1, which is how threads are created suspended.
type gate struct {
	mu        sync.Mutex
	cond      *sync.Cond
	count     int
	abandoned bool
	exited    bool
}

func newGate(count int) *gate {
	g := &gate{count: count}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// suspend increments the count and returns its previous value.
func (g *gate) suspend() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exited || g.abandoned {
		return -1, ErrThreadExited
	}
	prev := g.count
	g.count++
	return prev, nil
}

// resume decrements a non-zero count and returns its previous value.
// Reaching zero releases the thread.
func (g *gate) resume() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exited || g.abandoned {
		return -1, ErrThreadExited
	}
	prev := g.count
	if g.count > 0 {
		g.count--
		if g.count == 0 {
			g.cond.Broadcast()
		}
	}
	return prev, nil
}

// pass blocks while the count is non-zero. If the caller has to wait,
// park(true) runs before the first wait and park(false) once released.
// park runs under the gate lock and must not call back into the gate.
func (g *gate) pass(park func(parked bool)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	waited := false
	for g.count > 0 && !g.abandoned {
		if !waited && park != nil {
			park(true)
			waited = true
		}
		g.cond.Wait()
	}
	if g.abandoned {
		return ErrAbandoned
	}
	if waited && park != nil {
		park(false)
	}
	return nil
}

// abandon releases every waiter with ErrAbandoned.
func (g *gate) abandon() {
	g.mu.Lock()
	g.abandoned = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// exit marks the thread finished; later suspend and resume calls fail.
func (g *gate) exit() {
	g.mu.Lock()
	g.exited = true
	g.mu.Unlock()
}

func (g *gate) suspendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}
