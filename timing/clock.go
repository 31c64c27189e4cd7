// Package timing implements the wall-clock-anchored RealTimeClock and
// the TimingController that maps media kinds to clocks and offsets
// (spec.md §4.8), grounded on the reference-time arithmetic duplicated
// across the teacher's three video controllers — unified here into one
// type instead of re-deriving `(now-anchor)*speed` in each caller.
package timing

import "time"

// Clock is a wall-clock-anchored position source: position advances as
// (now-anchor)*speedRatio while running, and freezes at its last value
// otherwise. The zero value is a stopped clock at position 0 with
// speed 1.0.
type Clock struct {
	running  bool
	speed    float64
	anchor   time.Time
	position time.Duration

	now func() time.Time
}

// NewClock returns a stopped clock at position 0, speed 1.0.
func NewClock() *Clock {
	return &Clock{speed: 1.0, now: time.Now}
}

// Position returns the clock's current position: the frozen value if
// stopped, or the anchor-relative value if running.
func (c *Clock) Position() time.Duration {
	if !c.running {
		return c.position
	}
	return c.position + scale(c.now().Sub(c.anchor), c.speed)
}

// Play starts (or resumes) the clock from its current position.
func (c *Clock) Play() {
	if c.running {
		return
	}
	c.anchor = c.now()
	c.running = true
}

// Pause freezes the clock at its current position.
func (c *Clock) Pause() {
	if !c.running {
		return
	}
	c.position = c.Position()
	c.running = false
}

// Reset stops the clock and zeroes its position.
func (c *Clock) Reset() {
	c.running = false
	c.position = 0
}

// Update sets the clock's position directly, preserving running state
// and speed — used to snap to a range boundary or to translate a
// caller-supplied absolute position back through an offset.
func (c *Clock) Update(position time.Duration) {
	wasRunning := c.running
	if wasRunning {
		c.running = false
	}
	c.position = position
	if wasRunning {
		c.anchor = c.now()
		c.running = true
	}
}

// SetSpeed changes the playback speed ratio, freezing and re-anchoring
// at the current position so position() stays continuous across the
// change.
func (c *Clock) SetSpeed(ratio float64) {
	c.position = c.Position()
	c.speed = ratio
	if c.running {
		c.anchor = c.now()
	}
}

// Speed returns the current speed ratio.
func (c *Clock) Speed() float64 { return c.speed }

// IsRunning reports whether the clock is currently advancing.
func (c *Clock) IsRunning() bool { return c.running }

func scale(d time.Duration, ratio float64) time.Duration {
	return time.Duration(float64(d) * ratio)
}
