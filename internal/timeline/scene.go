package timeline

import "github.com/ivlev/storyboard/internal/geometry"

// TransitionKind names the transition leaving a scene into the next one.
// Unknown kinds are kept as authored and played back as a fade.
type TransitionKind string

const (
	TransitionFade       TransitionKind = "fade"
	TransitionSlideLeft  TransitionKind = "slide-left"
	TransitionSlideRight TransitionKind = "slide-right"
	TransitionSlideUp    TransitionKind = "slide-up"
	TransitionSlideDown  TransitionKind = "slide-down"
	TransitionZoomIn     TransitionKind = "zoom-in"
	TransitionZoomOut    TransitionKind = "zoom-out"
	TransitionRotate     TransitionKind = "rotate"
)

// TransitionKinds lists the kinds with a dedicated animation
var TransitionKinds = []TransitionKind{
	TransitionFade,
	TransitionSlideLeft,
	TransitionSlideRight,
	TransitionSlideUp,
	TransitionSlideDown,
	TransitionZoomIn,
	TransitionZoomOut,
	TransitionRotate,
}

// CaptionPosition is the vertical anchor of a caption
type CaptionPosition string

const (
	CaptionTop    CaptionPosition = "top"
	CaptionCenter CaptionPosition = "center"
	CaptionBottom CaptionPosition = "bottom"
)

func (p CaptionPosition) Valid() bool {
	return p == CaptionTop || p == CaptionCenter || p == CaptionBottom
}

const (
	MinDuration           = 0.5
	MaxDuration           = 10.0
	MinTransitionDuration = 0.1
	MaxTransitionDuration = 2.0
)

// Caption is the text drawn over a scene
type Caption struct {
	Text       string          `json:"content" yaml:"content"`
	FontFamily string          `json:"font" yaml:"font"`
	FontSizePx float64         `json:"fontSize" yaml:"font_size"`
	Color      string          `json:"color" yaml:"color"`
	Position   CaptionPosition `json:"position" yaml:"position"`
}

// Scene is one timed unit of the video. ID is stable across rebuilds and
// reorders; everything else may be edited.
type Scene struct {
	ID                 string         `json:"sceneId" yaml:"id"`
	Duration           float64        `json:"duration" yaml:"duration"`
	Transition         TransitionKind `json:"transition" yaml:"transition"`
	TransitionDuration float64        `json:"transitionDuration" yaml:"transition_duration"`
	Image              string         `json:"image" yaml:"image"`
	Fit                geometry.Fit   `json:"imageFit" yaml:"image_fit"`
	Caption            Caption        `json:"text" yaml:"text"`
}

// Content is one item of the upstream scene content feed
type Content struct {
	SceneID string `json:"sceneId" yaml:"id"`
	Image   string `json:"image" yaml:"image"`
	Caption string `json:"caption" yaml:"caption"`
}

// ClampDuration limits a scene hold time to [MinDuration, MaxDuration]
func ClampDuration(d float64) float64 {
	return clamp(d, MinDuration, MaxDuration)
}

// ClampTransitionDuration limits a transition window to
// [MinTransitionDuration, MaxTransitionDuration]
func ClampTransitionDuration(d float64) float64 {
	return clamp(d, MinTransitionDuration, MaxTransitionDuration)
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
