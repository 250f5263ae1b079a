package playback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const total = 7.5

func TestPlayPause(t *testing.T) {
	var c Clock
	assert.Equal(t, Paused, c.State())
	assert.False(t, c.Play(0), "empty timeline does not play")
	assert.False(t, c.Pause())

	assert.True(t, c.Play(total))
	assert.False(t, c.Play(total))
	assert.True(t, c.Pause())
	assert.Equal(t, "paused", c.State().String())
}

func TestTickClampsAtEnd(t *testing.T) {
	var c Clock
	c.Play(total)
	assert.True(t, c.Tick(8.0, total))
	assert.Equal(t, 7.5, c.Elapsed())
	assert.Equal(t, Paused, c.State())

	assert.False(t, c.Tick(1, total), "paused clock ignores ticks")
	assert.Equal(t, 7.5, c.Elapsed())
}

func TestTickMonotonic(t *testing.T) {
	var c Clock
	c.Play(total)
	prev := 0.0
	for i := 0; i < 300; i++ {
		c.Tick(1.0/30, total)
		assert.GreaterOrEqual(t, c.Elapsed(), prev)
		assert.LessOrEqual(t, c.Elapsed(), total)
		prev = c.Elapsed()
	}
	assert.False(t, c.Playing())
	assert.False(t, c.Tick(-1, total))
	assert.False(t, c.Tick(math.NaN(), total))
}

func TestReplayFromEnd(t *testing.T) {
	var c Clock
	c.Play(total)
	c.Tick(10, total)
	assert.True(t, c.Play(total))
	assert.Zero(t, c.Elapsed())
}

func TestClamp(t *testing.T) {
	var c Clock
	c.Set(6, total)
	c.Clamp(4)
	assert.Equal(t, 4.0, c.Elapsed())
	c.Set(-2, total)
	assert.Zero(t, c.Elapsed())
}

func TestSeek(t *testing.T) {
	var c Clock
	c.Play(total)
	c.Tick(1, total)

	Seek(&c, 0.5, total)
	assert.Equal(t, Paused, c.State(), "scrubbing stops playback")
	assert.Equal(t, 3.75, c.Elapsed())
	assert.Equal(t, 0.5, Ratio(&c, total))

	Seek(&c, 1.7, total)
	assert.Equal(t, total, c.Elapsed())
	Seek(&c, math.NaN(), total)
	assert.Zero(t, c.Elapsed())

	Seek(&c, 0.5, 0)
	assert.Zero(t, c.Elapsed())
	assert.Zero(t, Ratio(&c, 0))
}

func TestScrubber(t *testing.T) {
	var c Clock
	s := NewScrubber(&c)
	assert.False(t, s.Move(0.3, total), "no drag in progress")

	c.Play(total)
	s.Begin(PointerRatio(150, 100, 200), total)
	assert.True(t, s.Dragging())
	assert.False(t, c.Playing())
	assert.Equal(t, 0.25*total, c.Elapsed())

	assert.True(t, s.Move(PointerRatio(400, 100, 200), total))
	assert.Equal(t, total, c.Elapsed())

	s.End()
	assert.False(t, s.Dragging())
	assert.Equal(t, total, c.Elapsed())
	assert.False(t, c.Playing())
}
