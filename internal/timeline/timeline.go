package timeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/ivlev/storyboard/internal/geometry"
)

var (
	ErrDuplicateScene = errors.New("duplicate scene id")
	ErrUnknownScene   = errors.New("unknown scene id")
	ErrUnknownField   = errors.New("unknown scene field")
	ErrInvalidValue   = errors.New("invalid field value")
)

// BoundaryPolicy decides whether the last scene carries a trailing
// transition window in the total duration.
type BoundaryPolicy string

const (
	// TrailingWindow counts duration+transitionDuration for every scene
	TrailingWindow BoundaryPolicy = "trailing"
	// BetweenScenes counts n-1 windows for n scenes
	BetweenScenes BoundaryPolicy = "between"
)

// Timeline is the ordered list of scenes. A Timeline is never mutated after
// it is handed out; edits return a new value.
type Timeline struct {
	FPS        int            `json:"fps" yaml:"fps"`
	Resolution string         `json:"resolution" yaml:"resolution"`
	Policy     BoundaryPolicy `json:"policy,omitempty" yaml:"policy,omitempty"`
	Scenes     []Scene        `json:"scenes" yaml:"scenes"`
}

// Defaults are applied to scenes that appear for the first time in a rebuild.
// Caption style fields apply to every scene since they come from the global
// style settings.
type Defaults struct {
	FPS                int
	Resolution         string
	Policy             BoundaryPolicy
	Transition         TransitionKind
	TransitionDuration float64
	Fit                geometry.Fit
	FontFamily         string
	FontSizePx         float64
	Color              string
	Position           CaptionPosition
}

// DefaultDefaults mirrors the values the wizard starts with
func DefaultDefaults() Defaults {
	return Defaults{
		FPS:                30,
		Resolution:         "1080x1920",
		Policy:             TrailingWindow,
		Transition:         TransitionFade,
		TransitionDuration: 0.5,
		Fit:                geometry.FitCover,
		FontFamily:         "Pretendard-Bold",
		FontSizePx:         32,
		Color:              "#ffffff",
		Position:           CaptionCenter,
	}
}

const (
	captionRunesPerSecond = 7.0
	emptyCaptionDuration  = 2.5
)

// DefaultDuration estimates how long a caption needs to be read
func DefaultDuration(caption string) float64 {
	n := utf8.RuneCountInString(norm.NFC.String(caption))
	if n == 0 {
		return emptyCaptionDuration
	}
	d := clamp(float64(n)/captionRunesPerSecond, 1, 5)
	return math.Round(d*10) / 10
}

// Rebuild produces the timeline for a new content snapshot. Scenes whose id
// was present in prev keep their duration, transition, fit and font size.
// When nothing content-related changed, prev itself is returned.
func Rebuild(contents []Content, prev *Timeline, d Defaults) (*Timeline, error) {
	if d.FPS <= 0 {
		d.FPS = 30
	}
	if d.Policy == "" {
		d.Policy = TrailingWindow
	}
	if d.Transition == "" {
		d.Transition = TransitionFade
	}
	if !d.Fit.Valid() {
		d.Fit = geometry.FitCover
	}
	if !d.Position.Valid() {
		d.Position = CaptionCenter
	}

	existing := map[string]Scene{}
	if prev != nil {
		for _, s := range prev.Scenes {
			existing[s.ID] = s
		}
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	scenes := make([]Scene, 0, len(contents))
	for i, c := range contents {
		id := c.SceneID
		if id == "" {
			id = derivedID(c.Image, i, seen)
		}
		if !seen.Add(id) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateScene, id)
		}

		text := norm.NFC.String(c.Caption)
		scene := Scene{
			ID:                 id,
			Duration:           ClampDuration(DefaultDuration(text)),
			Transition:         d.Transition,
			TransitionDuration: ClampTransitionDuration(d.TransitionDuration),
			Image:              c.Image,
			Fit:                d.Fit,
			Caption: Caption{
				Text:       text,
				FontFamily: d.FontFamily,
				FontSizePx: d.FontSizePx,
				Color:      d.Color,
				Position:   d.Position,
			},
		}
		if old, ok := existing[id]; ok {
			scene.Duration = old.Duration
			scene.Transition = old.Transition
			scene.TransitionDuration = old.TransitionDuration
			scene.Fit = old.Fit
			if old.Caption.FontSizePx > 0 {
				scene.Caption.FontSizePx = old.Caption.FontSizePx
			}
		}
		scenes = append(scenes, scene)
	}

	next := &Timeline{
		FPS:        d.FPS,
		Resolution: d.Resolution,
		Policy:     d.Policy,
		Scenes:     scenes,
	}
	if prev != nil {
		next.FPS = prev.FPS
		next.Resolution = prev.Resolution
		next.Policy = prev.Policy
		if len(prev.Scenes) == len(next.Scenes) && prev.Fingerprint() == next.Fingerprint() {
			return prev, nil
		}
	}
	return next, nil
}

// derivedID names a scene that arrived without an id after its image
func derivedID(image string, index int, seen mapset.Set[string]) string {
	id := fmt.Sprintf("scene-%016x", xxhash.Sum64String(image))
	if image == "" {
		id = fmt.Sprintf("scene-%d", index+1)
	}
	base := id
	for n := 2; seen.Contains(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}

// Fingerprint hashes the content-derived fields of every scene in order:
// identity, image and caption text/style.
func (t *Timeline) Fingerprint() uint64 {
	h := xxhash.New()
	for _, s := range t.Scenes {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x1e",
			s.ID, s.Image, s.Caption.Text, s.Caption.FontFamily, s.Caption.Color, s.Caption.Position)
	}
	return h.Sum64()
}

// Index returns the position of the scene with the given id or -1
func (t *Timeline) Index(id string) int {
	for i, s := range t.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Len is the number of scenes; a nil timeline has none
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Scenes)
}

func (t *Timeline) clone() *Timeline {
	c := *t
	c.Scenes = make([]Scene, len(t.Scenes))
	copy(c.Scenes, t.Scenes)
	return &c
}
