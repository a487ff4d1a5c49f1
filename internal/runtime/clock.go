package runtime

import "sync/atomic"

// Clock is the host's monotonic logical clock.
//
// Every execution is stamped with a strictly increasing seq from this clock,
// so the execution log has a total order that does not depend on wall time.
// The host resumes the clock from the highest seq in the store on startup.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Release hands seq back when it was the last value issued and nothing was
// recorded under it. It reports whether the clock moved back.
func (c *Clock) Release(seq int64) bool {
	return c.seq.CompareAndSwap(seq, seq-1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
