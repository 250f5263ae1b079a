// Package engine ties the timeline, the texture cache, the reconciler and
// the playback clock into one editing session driving a render surface.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/export"
	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/playback"
	"github.com/ivlev/storyboard/internal/reconciler"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
)

var ErrStageInit = errors.New("stage initialisation failed")

// SurfaceFactory creates the render surface for a stage size
type SurfaceFactory func(stage geometry.Size) (render.Surface, error)

// Session is one preview editing session. All methods are safe for
// concurrent use; the per-frame path (Tick) and edits serialise on one lock.
type Session struct {
	cfg     *config.Config
	logger  *slog.Logger
	factory SurfaceFactory
	cache   *assets.Cache
	rec     *reconciler.Reconciler

	mu       sync.Mutex
	aspect   string
	stage    geometry.Size
	surface  render.Surface
	contents []timeline.Content
	settings config.GlobalSettings
	// latest is the authoritative model; shown is the timeline the
	// committed visuals were built from.
	latest *timeline.Timeline
	shown  *timeline.Track
	clock  playback.Clock
	scrub  *playback.Scrubber
	active int
}

// NewSession creates a session and initialises its stage. A stage failure
// is returned wrapped in ErrStageInit together with a usable session, so the
// caller may retry with SetAspect.
func NewSession(ctx context.Context, cfg *config.Config, loader assets.Loader, factory SurfaceFactory, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = func(geometry.Size) (render.Surface, error) { return render.NopSurface{}, nil }
	}
	cache := assets.NewCache(loader)
	s := &Session{
		cfg:      cfg,
		logger:   logger,
		factory:  factory,
		cache:    cache,
		rec:      reconciler.New(cache, cfg.Workers, logger),
		settings: cfg.Settings,
		shown:    timeline.NewTrack(nil),
	}
	s.scrub = playback.NewScrubber(&s.clock)
	return s, s.SetAspect(ctx, cfg.Aspect)
}

// SetAspect tears the stage down and rebuilds it for a new aspect ratio.
// Textures are purged and visuals discarded; the timeline and playback
// position survive.
func (s *Session) SetAspect(ctx context.Context, aspect string) error {
	stage, err := geometry.StageSize(aspect, s.cfg.BaseSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rec.Discard()
	s.cache.Purge()
	if s.surface != nil {
		if err := s.surface.Close(); err != nil {
			s.logger.Warn("failed to close surface", "error", err)
		}
		s.surface = nil
	}
	s.aspect = aspect
	s.stage = stage

	surface, err := s.factory(stage)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("stage initialisation failed", "aspect", aspect, "error", err)
		return fmt.Errorf("%w: %v", ErrStageInit, err)
	}
	s.surface = surface
	s.mu.Unlock()

	s.logger.Info("stage ready", "aspect", aspect, "width", stage.Width, "height", stage.Height)
	return s.reconcile(ctx)
}

// Ready reports whether a surface is attached
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface != nil
}

func (s *Session) Stage() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// ApplyContent rebuilds the timeline from a new content snapshot. Edits of
// scenes that keep their id survive. A snapshot that changes nothing is a
// no-op once the timeline is on screen; after a failed reconcile the same
// snapshot reconciles again.
func (s *Session) ApplyContent(ctx context.Context, contents []timeline.Content) error {
	for {
		s.mu.Lock()
		prev := s.latest
		d := s.defaults()
		s.mu.Unlock()

		tl, err := timeline.Rebuild(contents, prev, d)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if s.latest != prev {
			// an edit landed meanwhile, rebuild on top of it
			s.mu.Unlock()
			continue
		}
		s.contents = append([]timeline.Content(nil), contents...)
		if tl == prev && prev != nil && prev == s.shown.Timeline() {
			s.mu.Unlock()
			return nil
		}
		s.latest = tl
		s.mu.Unlock()
		return s.reconcile(ctx)
	}
}

// SetSettings replaces the global style settings and re-applies them to the
// current content.
func (s *Session) SetSettings(ctx context.Context, settings config.GlobalSettings) error {
	s.mu.Lock()
	s.settings = settings
	contents := s.contents
	has := s.latest != nil
	s.mu.Unlock()

	if !has {
		return nil
	}
	return s.ApplyContent(ctx, contents)
}

func (s *Session) Settings() config.GlobalSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) defaults() timeline.Defaults {
	d := s.cfg.Defaults()
	g := s.settings
	d.FontFamily = g.FontFamily
	d.FontSizePx = g.FontSizePx
	d.Color = g.Color
	d.Position = g.Position
	d.Fit = g.ImageFit
	d.Transition = g.TransitionTemplate
	d.TransitionDuration = g.TransitionDuration
	return d
}

// SetSceneField edits one scene. Shortening the active scene while playing
// pulls elapsed back to the scene's new end.
func (s *Session) SetSceneField(ctx context.Context, id string, field timeline.Field, value any) error {
	s.mu.Lock()
	if s.latest == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", timeline.ErrUnknownScene, id)
	}
	tl, err := s.latest.SetSceneField(id, field, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.latest = tl

	if field == timeline.FieldDuration && s.clock.Playing() {
		idx := tl.Index(id)
		if idx == s.active {
			end := tl.SceneStart(idx) + tl.Scenes[idx].Duration
			if s.clock.Elapsed() > end {
				s.clock.Set(end, tl.TotalDuration())
			}
		}
	}
	s.mu.Unlock()
	return s.reconcile(ctx)
}

// FitDuration rescales every scene so the timeline lasts target seconds,
// e.g. to match a background music track.
func (s *Session) FitDuration(ctx context.Context, target float64) error {
	s.mu.Lock()
	if s.latest == nil {
		s.mu.Unlock()
		return export.ErrNoTimeline
	}
	s.latest = s.latest.ScaleTo(target)
	s.mu.Unlock()
	return s.reconcile(ctx)
}

// reconcile builds visuals for the latest timeline outside the lock and
// swaps timeline and visuals together so a tick never sees one without the
// other. The ticket is taken together with the timeline it builds, so a
// later edit always holds a later ticket.
func (s *Session) reconcile(ctx context.Context) error {
	s.mu.Lock()
	tl := s.latest
	stage := s.stage
	ready := s.surface != nil && tl != nil
	ticket := s.rec.Begin()
	s.mu.Unlock()

	if !ready {
		// visuals are rebuilt once the stage comes up
		return nil
	}

	set, err := s.rec.Build(ctx, tl, stage)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tl != s.latest {
		s.logger.Debug("dropping visuals of a replaced timeline", "scenes", tl.Len())
		return nil
	}
	if err := s.rec.Commit(ticket, set); err != nil {
		s.logger.Debug("dropping stale visuals", "scenes", tl.Len())
		return nil
	}
	s.shown = timeline.NewTrack(tl)
	s.clock.Clamp(s.shown.Total())
	s.apply(s.clock.Playing())
	s.logger.Debug("timeline reconciled", "scenes", tl.Len(), "failed", len(set.Failed), "total", s.shown.Total())
	return nil
}

// apply resolves elapsed and pushes the resulting frame to the surface.
// Callers hold mu.
func (s *Session) apply(animate bool) {
	pos := s.shown.Resolve(s.clock.Elapsed())
	s.active = pos.Index
	set := s.rec.Current()
	set.Apply(pos, animate)
	s.present(set)
}

func (s *Session) present(set *reconciler.VisualSet) {
	if s.surface == nil || set == nil {
		return
	}
	if err := s.surface.Present(s.stage, set.Nodes()); err != nil {
		s.logger.Warn("failed to present frame", "error", err)
	}
}

func (s *Session) Play() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clock.Play(s.shown.Total()) {
		return false
	}
	s.apply(true)
	return true
}

func (s *Session) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Pause()
}

// Toggle flips between playing and paused
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.Pause() {
		return false
	}
	if s.clock.Play(s.shown.Total()) {
		s.apply(true)
		return true
	}
	return false
}

// Tick advances playback by delta seconds and renders the frame
func (s *Session) Tick(delta float64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock.Tick(delta, s.shown.Total()) {
		s.apply(true)
	}
	return s.status()
}

// Seek pauses and jumps to ratio of the total duration, showing the
// terminal state of the scene found there.
func (s *Session) Seek(ratio float64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	playback.Seek(&s.clock, ratio, s.shown.Total())
	s.apply(false)
	return s.status()
}

// SeekTime is Seek in seconds
func (s *Session) SeekTime(t float64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Pause()
	s.clock.Set(t, s.shown.Total())
	s.apply(false)
	return s.status()
}

func (s *Session) ScrubBegin(ratio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrub.Begin(ratio, s.shown.Total())
	s.apply(false)
}

func (s *Session) ScrubMove(ratio float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scrub.Move(ratio, s.shown.Total()) {
		s.apply(false)
	}
}

func (s *Session) ScrubEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrub.End()
}

// SelectScene pauses on the first instant scene i is fully shown: the end
// of the transition window leading into it. The bare start of span i would
// resolve to scene i-1.
func (s *Session) SelectScene(i int) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tl := s.shown.Timeline()
	if i < 0 || i >= tl.Len() {
		return s.status(), fmt.Errorf("scene index %d out of range [0,%d)", i, tl.Len())
	}
	at := tl.SceneStart(i)
	if i > 0 {
		at += tl.Scenes[i-1].TransitionDuration
	}
	s.clock.Pause()
	s.clock.Set(at, s.shown.Total())
	s.apply(false)
	return s.status(), nil
}

// Timeline returns the current model. It must not be modified.
func (s *Session) Timeline() *timeline.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Export builds the render job document from the current timeline
func (s *Session) Export() (*export.Payload, error) {
	s.mu.Lock()
	tl, settings := s.latest, s.settings
	s.mu.Unlock()
	return export.Build(tl, settings)
}

// WithSurface runs fn against the attached surface while no frame is being
// presented.
func (s *Session) WithSurface(fn func(render.Surface) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return ErrStageInit
	}
	return fn(s.surface)
}

// Run advances the clock at the configured frame rate until ctx ends
func (s *Session) Run(ctx context.Context) error {
	fps := s.cfg.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			delta := now.Sub(last).Seconds()
			last = now
			s.Tick(delta)
		}
	}
}

// CacheStats reports resolved textures and underlying fetches so far
func (s *Session) CacheStats() (textures int, fetches int64) {
	return s.cache.Len(), s.cache.Fetches()
}

// Close discards visuals, purges textures and releases the surface
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Discard()
	s.cache.Purge()
	if s.surface == nil {
		return nil
	}
	err := s.surface.Close()
	s.surface = nil
	return err
}
