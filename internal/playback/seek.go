package playback

import "math"

// Seek pauses the clock and moves it to ratio of total. Ratio is clamped to
// [0,1]. The caller applies the terminal visual state; scrubbing never
// animates.
func Seek(c *Clock, ratio, total float64) {
	c.Pause()
	if total <= 0 {
		c.elapsed = 0
		return
	}
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = math.Max(0, math.Min(1, ratio))
	c.Set(ratio*total, total)
}

// Ratio is the inverse of Seek, used to draw the scrub handle
func Ratio(c *Clock, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, c.elapsed/total))
}

// Scrubber tracks a pointer drag over the progress bar. Every movement
// sample seeks; releasing ends the drag with no further state change.
type Scrubber struct {
	clock    *Clock
	dragging bool
}

func NewScrubber(c *Clock) *Scrubber {
	return &Scrubber{clock: c}
}

func (s *Scrubber) Dragging() bool { return s.dragging }

func (s *Scrubber) Begin(ratio, total float64) {
	s.dragging = true
	Seek(s.clock, ratio, total)
}

// Move seeks while a drag is active and reports whether it did
func (s *Scrubber) Move(ratio, total float64) bool {
	if !s.dragging {
		return false
	}
	Seek(s.clock, ratio, total)
	return true
}

func (s *Scrubber) End() {
	s.dragging = false
}

// PointerRatio normalises a pointer x coordinate against a bar of the given
// left edge and width.
func PointerRatio(x, left, width float64) float64 {
	if width <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, (x-left)/width))
}
