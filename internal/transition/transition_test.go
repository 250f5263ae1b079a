package transition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
)

var stage = geometry.Size{Width: 1080, Height: 1920}

func TestFade(t *testing.T) {
	f := Compute(timeline.TransitionFade, 0, stage)
	assert.Equal(t, 1.0, f.Out.Sprite.Alpha)
	assert.Equal(t, 0.0, f.In.Sprite.Alpha)
	assert.True(t, f.In.Sprite.Visible)

	f = Compute(timeline.TransitionFade, 0.25, stage)
	assert.InDelta(t, 0.75, f.Out.Sprite.Alpha, 1e-12)
	assert.InDelta(t, 0.25, f.In.Sprite.Alpha, 1e-12)
	assert.InDelta(t, 0.75, f.Out.Text.Alpha, 1e-12)
	assert.InDelta(t, 0.25, f.In.Text.Alpha, 1e-12)
}

func TestCompletionResetsOutgoing(t *testing.T) {
	for _, kind := range append(timeline.TransitionKinds, "sparkle") {
		t.Run(string(kind), func(t *testing.T) {
			f := Compute(kind, 1, stage)
			assert.Equal(t, render.Props{Scale: 1}, f.Out.Sprite)
			assert.Equal(t, render.Props{Scale: 1}, f.Out.Text)
			assert.Equal(t, render.Shown(), f.In.Sprite)
			assert.Equal(t, render.Shown(), f.In.Text)

			assert.Equal(t, f, Compute(kind, 1.7, stage))
		})
	}
}

func TestSlides(t *testing.T) {
	tests := []struct {
		kind             timeline.TransitionKind
		inX, inY         float64
		outEndX, outEndY float64
	}{
		{timeline.TransitionSlideLeft, stage.Width, 0, -stage.Width, 0},
		{timeline.TransitionSlideRight, -stage.Width, 0, stage.Width, 0},
		{timeline.TransitionSlideUp, 0, stage.Height, 0, -stage.Height},
		{timeline.TransitionSlideDown, 0, -stage.Height, 0, stage.Height},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			start := Compute(tt.kind, 0, stage)
			assert.Equal(t, tt.inX, start.In.Sprite.OffsetX)
			assert.Equal(t, tt.inY, start.In.Sprite.OffsetY)
			assert.Equal(t, 0.0, start.Out.Sprite.OffsetX)
			assert.Equal(t, 0.0, start.Out.Sprite.OffsetY)

			// no fade on the sprites, incoming caption snaps in
			assert.Equal(t, 1.0, start.In.Sprite.Alpha)
			assert.Equal(t, 1.0, start.Out.Sprite.Alpha)
			assert.Equal(t, render.Shown(), start.In.Text)

			mid := Compute(tt.kind, 0.5, stage)
			assert.InDelta(t, tt.inX/2, mid.In.Sprite.OffsetX, 1e-9)
			assert.InDelta(t, tt.outEndY/2, mid.Out.Sprite.OffsetY, 1e-9)
			assert.InDelta(t, 0.5, mid.Out.Text.Alpha, 1e-12)

			near := Compute(tt.kind, 0.999, stage)
			assert.InDelta(t, tt.outEndX, near.Out.Sprite.OffsetX, 1)
			assert.InDelta(t, tt.outEndY, near.Out.Sprite.OffsetY, 1)
		})
	}
}

func TestZoomAndRotate(t *testing.T) {
	in := Compute(timeline.TransitionZoomIn, 0, stage)
	assert.Equal(t, 0.0, in.In.Sprite.Scale)
	assert.Equal(t, 1.0, in.Out.Sprite.Alpha)

	// ease-out is ahead of linear
	mid := Compute(timeline.TransitionZoomIn, 0.5, stage)
	assert.Greater(t, mid.In.Sprite.Scale, 0.5)
	assert.InDelta(t, 0.5, mid.Out.Sprite.Alpha, 1e-12)

	out := Compute(timeline.TransitionZoomOut, 0, stage)
	assert.Equal(t, 2.0, out.In.Sprite.Scale)
	// ease-in lags behind linear
	mid = Compute(timeline.TransitionZoomOut, 0.5, stage)
	assert.Greater(t, mid.In.Sprite.Scale, 1.5)

	rot := Compute(timeline.TransitionRotate, 0, stage)
	assert.InDelta(t, 2*math.Pi, rot.In.Sprite.Rotation, 1e-12)
	mid = Compute(timeline.TransitionRotate, 0.5, stage)
	assert.InDelta(t, math.Pi, mid.In.Sprite.Rotation, 1e-9)
}

func TestUnknownKindFades(t *testing.T) {
	assert.Equal(t, Compute(timeline.TransitionFade, 0.4, stage), Compute("", 0.4, stage))
	assert.Equal(t, Compute(timeline.TransitionFade, 0.4, stage), Compute("wipe", 0.4, stage))
}

func TestPhaseClamped(t *testing.T) {
	assert.Equal(t, Compute(timeline.TransitionFade, 0, stage), Compute(timeline.TransitionFade, -3, stage))
	assert.Equal(t, Resting(), Compute(timeline.TransitionFade, math.NaN(), stage))
}

func TestEasingEndpoints(t *testing.T) {
	for _, e := range []Easing{linear, easeInCubic, easeOutCubic, easeInOutCubic} {
		assert.InDelta(t, 0, e(0), 1e-12)
		assert.InDelta(t, 1, e(1), 1e-12)
	}
	assert.InDelta(t, 0.5, easeInOutCubic(0.5), 1e-12)
}
