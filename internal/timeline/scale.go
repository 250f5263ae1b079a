package timeline

import "math"

// ScaleTo stretches or squeezes scene hold durations so the timeline lasts
// target seconds. Transition windows keep their length. Durations are
// aligned to whole frames and clamped, so the result only approximates
// target when a scene hits a bound.
func (t *Timeline) ScaleTo(target float64) *Timeline {
	if t.Len() == 0 || target <= 0 || math.IsNaN(target) {
		return t
	}

	hold := 0.0
	for _, s := range t.Scenes {
		hold += s.Duration
	}
	windows := t.TotalDuration() - hold
	scale := (target - windows) / hold

	fps := float64(t.FPS)
	if fps <= 0 {
		fps = 30
	}

	next := t.clone()
	for i := range next.Scenes {
		d := next.Scenes[i].Duration * scale
		d = math.Round(d*fps) / fps
		next.Scenes[i].Duration = ClampDuration(d)
	}
	return next
}
