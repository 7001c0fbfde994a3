package camera

import "sync"

// Cell is a single-slot, overwrite-on-write holder for the latest frame.
// It decouples the capture cadence from every consumer: the one writer
// replaces the slot, readers take the current pointer and work from that.
// The lock is only ever held for the pointer swap, never across I/O.
type Cell struct {
	mu    sync.RWMutex
	frame *Frame
	seq   uint64
}

func NewCell() *Cell {
	return &Cell{}
}

// Publish replaces the held frame and bumps the sequence counter.
// The frame must not be modified after it is published.
func (c *Cell) Publish(f *Frame) {
	c.mu.Lock()
	c.frame = f
	c.seq++
	c.mu.Unlock()
}

// Snapshot returns the most recently published frame and its sequence
// number, or ok=false if nothing has been published yet.
func (c *Cell) Snapshot() (f *Frame, seq uint64, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.frame == nil {
		return nil, 0, false
	}
	return c.frame, c.seq, true
}
