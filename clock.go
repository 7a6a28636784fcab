package statecraft

import (
	"sync"
	"time"
)

// Clock is the interpreter's monotonic virtual time source (spec §4.3). It
// supports a manual mode (Time may be advanced directly, monotonically)
// and a synchronized mode (Start/Stop track wall-clock elapsed time scaled
// by Speed). The interpreter reads Time when the evaluator needs
// after(s)/idle(s); per-state timestamps are the evaluator's concern, not
// the clock's.
type Clock struct {
	mu        sync.Mutex
	base      float64
	speed     float64
	running   bool
	startedAt time.Time
	now       func() time.Time
}

// NewClock creates a stopped clock at time 0 with unit speed.
func NewClock() *Clock {
	return &Clock{speed: 1, now: time.Now}
}

// Time returns the clock's current virtual time.
func (c *Clock) Time() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLocked()
}

func (c *Clock) timeLocked() float64 {
	if !c.running {
		return c.base
	}
	elapsed := c.now().Sub(c.startedAt).Seconds()
	return c.base + elapsed*c.speed
}

// SetTime sets the clock's time while in manual mode. Writing a value
// smaller than the current time is a ClockMonotonicityError. Calling
// SetTime while synchronized is also an error: stop the clock first.
func (c *Clock) SetTime(t float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return &ClockMonotonicityError{Current: c.timeLocked(), Attempted: t}
	}
	if t < c.base {
		return &ClockMonotonicityError{Current: c.base, Attempted: t}
	}
	c.base = t
	return nil
}

// Start begins synchronized tracking of wall-clock elapsed time, scaled by
// Speed. Calling Start while already running is a no-op.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.startedAt = c.now()
	c.running = true
}

// Stop freezes the clock, folding elapsed wall-clock time into the base so
// it is preserved across further Start/Stop cycles.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.base = c.timeLocked()
	c.running = false
}

// SetSpeed changes the synchronization multiplier. May be called while
// running or stopped; accumulated time is preserved.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.base = c.timeLocked()
		c.startedAt = c.now()
	}
	c.speed = speed
}

// Running reports whether the clock is in synchronized mode.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
