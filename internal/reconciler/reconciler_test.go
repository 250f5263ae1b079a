package reconciler

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/timeline"
)

var stage = geometry.Size{Width: 1080, Height: 1920}

func testCache() *assets.Cache {
	return assets.NewCache(assets.LoaderFunc(func(_ context.Context, source string) (image.Image, error) {
		if source == "broken.png" {
			return nil, errors.New("corrupt")
		}
		return image.NewRGBA(image.Rect(0, 0, 200, 100)), nil
	}))
}

func testTimeline() *timeline.Timeline {
	scene := func(id, img, text string, pos timeline.CaptionPosition) timeline.Scene {
		return timeline.Scene{
			ID: id, Duration: 2, Transition: timeline.TransitionFade, TransitionDuration: 0.5,
			Image: img, Fit: geometry.FitCover,
			Caption: timeline.Caption{Text: text, FontFamily: "Pretendard-Bold", FontSizePx: 32, Color: "#ffffff", Position: pos},
		}
	}
	return &timeline.Timeline{FPS: 30, Scenes: []timeline.Scene{
		scene("a", "a.png", "top", timeline.CaptionTop),
		scene("b", "broken.png", "middle", timeline.CaptionCenter),
		scene("c", "c.png", "", timeline.CaptionBottom),
	}}
}

func TestBuild(t *testing.T) {
	r := New(testCache(), 2, nil)
	set, err := r.Build(context.Background(), testTimeline(), stage)
	require.NoError(t, err)
	require.Len(t, set.Visuals, 3)

	assert.NotNil(t, set.Visuals[0].Sprite)
	assert.Nil(t, set.Visuals[1].Sprite)
	assert.NotNil(t, set.Visuals[1].Text, "caption survives a failed image")
	assert.Nil(t, set.Visuals[2].Text)
	assert.Equal(t, []int{1}, set.Failed)

	sprite := set.Visuals[0].Sprite
	assert.Equal(t, 19.2, sprite.Rect.Scale)
	assert.InDelta(t, (1080-3840)/2.0, sprite.Rect.X, 1e-6)
	assert.False(t, sprite.Props.Visible)

	top := set.Visuals[0].Text
	assert.Equal(t, 540.0, top.X)
	assert.Equal(t, 200.0, top.Y)
	assert.Equal(t, "center", top.Style.Align)
	assert.Equal(t, captionShadow, top.Style.Shadow)
	assert.Equal(t, 960.0, set.Visuals[1].Text.Y)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache := assets.NewCache(assets.LoaderFunc(func(ctx context.Context, _ string) (image.Image, error) {
		return nil, ctx.Err()
	}))
	_, err := New(cache, 1, nil).Build(ctx, testTimeline(), stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommitSuperseded(t *testing.T) {
	r := New(testCache(), 0, nil)
	first := r.Begin()
	second := r.Begin()

	assert.ErrorIs(t, r.Commit(first, &VisualSet{}), ErrSuperseded)
	assert.Nil(t, r.Current())

	set := &VisualSet{}
	require.NoError(t, r.Commit(second, set))
	assert.Same(t, set, r.Current())

	r.Discard()
	assert.Nil(t, r.Current())
}

func TestShowOnly(t *testing.T) {
	set, err := New(testCache(), 4, nil).Build(context.Background(), testTimeline(), stage)
	require.NoError(t, err)

	set.ShowOnly(2)
	assert.Equal(t, render.Shown(), set.Visuals[2].Sprite.Props)
	assert.Equal(t, render.Hidden(), set.Visuals[0].Sprite.Props)
	assert.Equal(t, render.Hidden(), set.Visuals[0].Text.Props)
	assert.Equal(t, render.Hidden(), set.Visuals[1].Text.Props)
}

func TestApplyTransition(t *testing.T) {
	tl := testTimeline()
	set, err := New(testCache(), 4, nil).Build(context.Background(), tl, stage)
	require.NoError(t, err)

	pos := tl.Resolve(2.75)
	require.NotNil(t, pos.Transition)

	set.Apply(pos, true)
	assert.True(t, set.Visuals[0].Sprite.Props.Visible)
	assert.InDelta(t, 0.5, set.Visuals[0].Sprite.Props.Alpha, 1e-9)
	assert.True(t, set.Visuals[1].Text.Props.Visible)
	assert.InDelta(t, 0.5, set.Visuals[1].Text.Props.Alpha, 1e-9)
	assert.False(t, set.Visuals[2].Sprite.Props.Visible)

	// Seeking lands on the terminal state even inside a window
	set.Apply(pos, false)
	assert.Equal(t, render.Hidden(), set.Visuals[0].Sprite.Props)
	assert.Equal(t, render.Shown(), set.Visuals[1].Text.Props)
}

func TestNodesPaintOrder(t *testing.T) {
	set, err := New(testCache(), 4, nil).Build(context.Background(), testTimeline(), stage)
	require.NoError(t, err)

	nodes := set.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, render.KindSprite, nodes[0].Kind)
	assert.Equal(t, 2, nodes[1].Scene)
	assert.Equal(t, render.KindText, nodes[2].Kind)
	assert.Equal(t, 1, nodes[3].Scene)

	var nilSet *VisualSet
	assert.Nil(t, nilSet.Nodes())
}
