package engine

import "sync"

// Pauser is a cooperative pause gate for the worker pool. While paused,
// Wait blocks before each dequeue; in-flight fetches run to completion.
// Release opens the gate permanently at shutdown so workers parked here
// can observe the closed queue.
type Pauser struct {
	mu       sync.Mutex
	cond     *sync.Cond
	paused   bool
	released bool
}

func NewPauser() *Pauser {
	p := &Pauser{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Wait blocks the caller while paused, returning immediately otherwise.
// Never blocks after Release.
func (p *Pauser) Wait() {
	p.mu.Lock()
	for p.paused && !p.released {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Toggle flips the pause state and returns the new one (true = paused).
// After Release the gate stays open and Toggle always reports running.
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return false
	}
	if p.paused {
		p.paused = false
		p.cond.Broadcast()
	} else {
		p.paused = true
	}
	return p.paused
}

// Release opens the gate for good and wakes every blocked Wait. Idempotent.
func (p *Pauser) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
	if p.paused {
		p.paused = false
		p.cond.Broadcast()
	}
}

// IsPaused reports the current state.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
