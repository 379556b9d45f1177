package app

import "time"

// Clock measures elapsed play time for a Time Challenge run.
// Pausing freezes Elapsed; resuming shifts the start forward by the paused span.
type Clock struct {
	now      func() time.Time
	start    time.Time
	pausedAt *time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Start resets the basis to the current instant.
func (c *Clock) Start() {
	c.start = c.now()
	c.pausedAt = nil
}

// Pause records the suspension instant. Pausing twice keeps the first mark.
func (c *Clock) Pause() {
	if c.pausedAt != nil {
		return
	}
	at := c.now()
	c.pausedAt = &at
}

// Resume moves the start forward by however long the clock was paused.
func (c *Clock) Resume() {
	if c.pausedAt == nil {
		return
	}
	c.start = c.start.Add(c.now().Sub(*c.pausedAt))
	c.pausedAt = nil
}

// Paused reports whether a pause mark is set.
func (c *Clock) Paused() bool {
	return c.pausedAt != nil
}

// Elapsed returns running time since Start, excluding pauses.
func (c *Clock) Elapsed() time.Duration {
	ref := c.now()
	if c.pausedAt != nil {
		ref = *c.pausedAt
	}
	if d := ref.Sub(c.start); d > 0 {
		return d
	}
	return 0
}

// Remaining returns max(0, limit - elapsed - penalty) in whole seconds.
// Elapsed is truncated to whole seconds before subtracting.
func (c *Clock) Remaining(limit, penalty time.Duration) int {
	left := int(limit/time.Second) - int(c.Elapsed()/time.Second) - int(penalty/time.Second)
	if left < 0 {
		return 0
	}
	return left
}
