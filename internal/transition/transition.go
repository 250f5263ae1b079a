// Package transition computes the visual state of two consecutive scenes
// while one hands over to the other. Everything here is a pure function of
// phase, so pausing or seeking never leaves half-applied tweens behind.
package transition

import (
	"math"

	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
)

// Pair holds the props for a scene's sprite and caption
type Pair struct {
	Sprite render.Props
	Text   render.Props
}

// Frame is the state of the outgoing and incoming scenes at one phase
type Frame struct {
	Out Pair
	In  Pair
}

// Resting returns the frame after a transition finished: the incoming scene
// fully shown, the outgoing one hidden with every transform reset.
func Resting() Frame {
	return Frame{
		Out: Pair{Sprite: render.Hidden(), Text: render.Hidden()},
		In:  Pair{Sprite: render.Shown(), Text: render.Shown()},
	}
}

// Compute returns the props of both scenes for kind at phase. Phase is
// clamped to [0,1]; at 1 the resting frame is returned. Unknown kinds fade.
func Compute(kind timeline.TransitionKind, phase float64, stage geometry.Size) Frame {
	p := math.Max(0, math.Min(1, phase))
	if phase != phase { // NaN
		p = 1
	}
	if p >= 1 {
		return Resting()
	}

	f := Frame{
		Out: Pair{Sprite: render.Shown(), Text: fadeOut(p)},
		In:  Pair{Sprite: render.Shown(), Text: render.Shown()},
	}

	switch kind {
	case timeline.TransitionSlideLeft:
		e := easeInOutCubic(p)
		f.In.Sprite.OffsetX = lerp(stage.Width, 0, e)
		f.Out.Sprite.OffsetX = lerp(0, -stage.Width, e)
	case timeline.TransitionSlideRight:
		e := easeInOutCubic(p)
		f.In.Sprite.OffsetX = lerp(-stage.Width, 0, e)
		f.Out.Sprite.OffsetX = lerp(0, stage.Width, e)
	case timeline.TransitionSlideUp:
		e := easeInOutCubic(p)
		f.In.Sprite.OffsetY = lerp(stage.Height, 0, e)
		f.Out.Sprite.OffsetY = lerp(0, -stage.Height, e)
	case timeline.TransitionSlideDown:
		e := easeInOutCubic(p)
		f.In.Sprite.OffsetY = lerp(-stage.Height, 0, e)
		f.Out.Sprite.OffsetY = lerp(0, stage.Height, e)
	case timeline.TransitionZoomIn:
		f.In.Sprite.Scale = lerp(0, 1, easeOutCubic(p))
		f.Out.Sprite = fadeOut(p)
	case timeline.TransitionZoomOut:
		f.In.Sprite.Scale = lerp(2, 1, easeInCubic(p))
		f.Out.Sprite = fadeOut(p)
	case timeline.TransitionRotate:
		f.In.Sprite.Rotation = lerp(2*math.Pi, 0, easeInOutCubic(p))
		f.Out.Sprite = fadeOut(p)
	default:
		f.Out.Sprite = fadeOut(p)
		f.In.Sprite = fadeIn(p)
		f.In.Text = fadeIn(p)
	}
	return f
}

func fadeOut(p float64) render.Props {
	return render.Props{Visible: true, Alpha: lerp(1, 0, linear(p)), Scale: 1}
}

func fadeIn(p float64) render.Props {
	return render.Props{Visible: true, Alpha: lerp(0, 1, linear(p)), Scale: 1}
}
