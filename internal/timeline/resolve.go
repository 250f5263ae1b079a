package timeline

// Window is the stretch of time during which a scene hands over to the next
type Window struct {
	From  int            `json:"from"`
	To    int            `json:"to"`
	Kind  TransitionKind `json:"kind"`
	Phase float64        `json:"phase"`
}

// Position is what an elapsed time resolves to
type Position struct {
	Index int
	// Progress through the active scene span, 0..1
	Progress float64
	// Transition is set while elapsed is inside the window leading into Index
	Transition *Window
}

// Boundaries returns the cumulative end time of each scene span. Under
// TrailingWindow every span is duration+transitionDuration; under
// BetweenScenes the last span omits its transition.
func (t *Timeline) Boundaries() []float64 {
	if t.Len() == 0 {
		return nil
	}
	ends := make([]float64, len(t.Scenes))
	acc := 0.0
	for i, s := range t.Scenes {
		acc += s.Duration
		if i < len(t.Scenes)-1 || t.Policy != BetweenScenes {
			acc += s.TransitionDuration
		}
		ends[i] = acc
	}
	return ends
}

// TotalDuration is the upper bound for elapsed time
func (t *Timeline) TotalDuration() float64 {
	ends := t.Boundaries()
	if len(ends) == 0 {
		return 0
	}
	return ends[len(ends)-1]
}

// SceneStart is the elapsed time at which scene i's span begins
func (t *Timeline) SceneStart(i int) float64 {
	if i <= 0 || t.Len() == 0 {
		return 0
	}
	ends := t.Boundaries()
	if i > len(ends) {
		i = len(ends)
	}
	return ends[i-1]
}

// Resolve maps elapsed time to the active scene: the first scene whose
// cumulative end is >= elapsed. The window leading into scene i starts at
// the end of scene i-1's span and lasts scene i-1's transition duration.
func (t *Timeline) Resolve(elapsed float64) Position {
	return resolve(t, t.Boundaries(), elapsed)
}

func resolve(t *Timeline, ends []float64, elapsed float64) Position {
	if len(ends) == 0 {
		return Position{}
	}

	idx := len(ends) - 1
	for i, end := range ends {
		if elapsed <= end {
			idx = i
			break
		}
	}

	start := 0.0
	if idx > 0 {
		start = ends[idx-1]
	}
	pos := Position{Index: idx, Progress: 1}
	if span := ends[idx] - start; span > 0 {
		pos.Progress = clamp((elapsed-start)/span, 0, 1)
	}

	if idx > 0 {
		prev := t.Scenes[idx-1]
		if local := elapsed - start; prev.TransitionDuration > 0 && local < prev.TransitionDuration {
			pos.Transition = &Window{
				From:  idx - 1,
				To:    idx,
				Kind:  prev.Transition,
				Phase: clamp(local/prev.TransitionDuration, 0, 1),
			}
		}
	}
	return pos
}

// Track caches the scene boundaries of a timeline so per-frame resolution
// does not re-accumulate durations. It resolves exactly like Resolve.
type Track struct {
	tl   *Timeline
	ends []float64
}

func NewTrack(t *Timeline) *Track {
	if t == nil {
		return &Track{}
	}
	return &Track{tl: t, ends: t.Boundaries()}
}

func (tr *Track) Timeline() *Timeline { return tr.tl }

func (tr *Track) Total() float64 {
	if len(tr.ends) == 0 {
		return 0
	}
	return tr.ends[len(tr.ends)-1]
}

func (tr *Track) Resolve(elapsed float64) Position {
	return resolve(tr.tl, tr.ends, elapsed)
}
