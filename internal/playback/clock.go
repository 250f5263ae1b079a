// Package playback advances virtual elapsed time over a timeline and maps
// pointer ratios back onto it.
package playback

import "math"

type State int

const (
	Paused State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "paused"
}

// Clock is the playback state machine. Elapsed is always within
// [0, total] of the timeline it was last driven with.
type Clock struct {
	elapsed float64
	state   State
}

func (c *Clock) Elapsed() float64 { return c.elapsed }
func (c *Clock) State() State     { return c.state }
func (c *Clock) Playing() bool    { return c.state == Playing }

// Play starts playback. A clock parked at the end replays from zero. Play is
// a no-op when already playing or when the timeline is empty.
func (c *Clock) Play(total float64) bool {
	if c.state == Playing || total <= 0 {
		return false
	}
	if c.elapsed >= total {
		c.elapsed = 0
	}
	c.state = Playing
	return true
}

func (c *Clock) Pause() bool {
	if c.state != Playing {
		return false
	}
	c.state = Paused
	return true
}

// Tick advances a playing clock by delta seconds. Reaching total clamps and
// pauses; the end is terminal until a seek or replay. It reports whether
// elapsed moved.
func (c *Clock) Tick(delta, total float64) bool {
	if c.state != Playing || delta <= 0 || math.IsNaN(delta) {
		return false
	}
	c.elapsed += delta
	if c.elapsed >= total {
		c.elapsed = math.Max(total, 0)
		c.state = Paused
	}
	return true
}

// Set moves elapsed to t clamped to [0, total] without touching state
func (c *Clock) Set(t, total float64) {
	if math.IsNaN(t) {
		t = 0
	}
	c.elapsed = math.Max(0, math.Min(t, math.Max(total, 0)))
}

// Clamp pulls elapsed back inside a timeline that shrank
func (c *Clock) Clamp(total float64) {
	c.Set(c.elapsed, total)
}
