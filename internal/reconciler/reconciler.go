// Package reconciler keeps one visual object per timeline scene. Every
// timeline replacement rebuilds the whole set; nothing is diffed.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
	"github.com/ivlev/storyboard/internal/transition"
)

// ErrSuperseded is returned when a newer timeline started reconciling while
// this one was still loading
var ErrSuperseded = errors.New("reconcile superseded by a newer timeline")

// captionInset is the distance of top and bottom captions from the stage edge
const captionInset = 200

var captionShadow = render.Shadow{Color: "#000000", Blur: 10, Angle: math.Pi / 4, Distance: 2}

// Visual is the renderable form of one scene. Sprite is nil when the image
// failed to load, Text is nil when the caption is empty.
type Visual struct {
	Sprite *render.Node
	Text   *render.Node
}

func (v Visual) set(p transition.Pair) {
	if v.Sprite != nil {
		v.Sprite.Props = p.Sprite
	}
	if v.Text != nil {
		v.Text.Props = p.Text
	}
}

// VisualSet is the complete set of visuals for one timeline
type VisualSet struct {
	Timeline *timeline.Timeline
	Stage    geometry.Size
	Visuals  []Visual
	Failed   []int
}

// Nodes returns every node in paint order: scene by scene, caption above
// its sprite.
func (vs *VisualSet) Nodes() []*render.Node {
	if vs == nil {
		return nil
	}
	nodes := make([]*render.Node, 0, 2*len(vs.Visuals))
	for _, v := range vs.Visuals {
		if v.Sprite != nil {
			nodes = append(nodes, v.Sprite)
		}
	}
	for _, v := range vs.Visuals {
		if v.Text != nil {
			nodes = append(nodes, v.Text)
		}
	}
	return nodes
}

// ShowOnly makes scene i fully visible and resets every other visual
func (vs *VisualSet) ShowOnly(i int) {
	if vs == nil {
		return
	}
	rest := transition.Resting()
	for j, v := range vs.Visuals {
		if j == i {
			v.set(rest.In)
		} else {
			v.set(rest.Out)
		}
	}
}

// Apply updates visibility for a resolved position. With animate set and
// the position inside a transition window, the outgoing and incoming pair
// are interpolated; otherwise the terminal state is applied directly.
func (vs *VisualSet) Apply(pos timeline.Position, animate bool) {
	if vs == nil {
		return
	}
	w := pos.Transition
	if !animate || w == nil || w.From < 0 || w.To >= len(vs.Visuals) {
		vs.ShowOnly(pos.Index)
		return
	}

	frame := transition.Compute(w.Kind, w.Phase, vs.Stage)
	rest := transition.Resting()
	for j, v := range vs.Visuals {
		switch j {
		case w.From:
			v.set(frame.Out)
		case w.To:
			v.set(frame.In)
		default:
			v.set(rest.Out)
		}
	}
}

// Reconciler builds visual sets from timelines. Only the most recently
// started build can be committed.
type Reconciler struct {
	cache   *assets.Cache
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	gen     uint64
	current *VisualSet
}

func New(cache *assets.Cache, workers int, logger *slog.Logger) *Reconciler {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{cache: cache, workers: workers, logger: logger}
}

// Begin invalidates any build in flight and returns a ticket for the next one
func (r *Reconciler) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	return r.gen
}

// Commit replaces the current set if ticket is still the latest. The
// previous set is dropped wholesale.
func (r *Reconciler) Commit(ticket uint64, set *VisualSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket != r.gen {
		return ErrSuperseded
	}
	r.current = set
	return nil
}

// Current returns the committed set, nil before the first commit
func (r *Reconciler) Current() *VisualSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Discard drops the committed set and invalidates builds in flight
func (r *Reconciler) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.current = nil
}

// Build loads every scene's texture concurrently and creates its nodes, all
// hidden. A scene whose image fails keeps its caption. Build only fails when
// ctx is cancelled.
func (r *Reconciler) Build(ctx context.Context, tl *timeline.Timeline, stage geometry.Size) (*VisualSet, error) {
	set := &VisualSet{Timeline: tl, Stage: stage, Visuals: make([]Visual, tl.Len())}
	if tl.Len() == 0 {
		return set, nil
	}

	failed := make([]bool, len(set.Visuals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range tl.Scenes {
		scene := tl.Scenes[i]
		set.Visuals[i].Text = captionNode(i, scene.Caption, stage)

		g.Go(func() error {
			tex, err := r.cache.Load(gctx, scene.Image)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Warn("failed to load scene image", "scene", i, "id", scene.ID, "source", scene.Image, "error", err)
				failed[i] = true
				return nil
			}
			rect := geometry.Place(float64(tex.Width), float64(tex.Height), stage, scene.Fit)
			set.Visuals[i].Sprite = render.NewSprite(i, tex, rect)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, f := range failed {
		if f {
			set.Failed = append(set.Failed, i)
		}
	}
	return set, nil
}

func captionNode(i int, c timeline.Caption, stage geometry.Size) *render.Node {
	if c.Text == "" {
		return nil
	}

	y := stage.Height / 2
	switch c.Position {
	case timeline.CaptionTop:
		y = captionInset
	case timeline.CaptionBottom:
		y = stage.Height - captionInset
	}

	style := render.TextStyle{
		FontFamily: c.FontFamily,
		FontSizePx: c.FontSizePx,
		Color:      c.Color,
		Align:      "center",
		Shadow:     captionShadow,
	}
	if style.FontFamily == "" {
		style.FontFamily = "Arial"
	}
	if style.FontSizePx <= 0 {
		style.FontSizePx = 32
	}
	if style.Color == "" {
		style.Color = "#ffffff"
	}
	return render.NewText(i, c.Text, style, stage.Width/2, y)
}
