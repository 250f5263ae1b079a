package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
)

var stage = geometry.Size{Width: 100, Height: 200}

func solid(w, h int, c color.Color) *assets.Texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
	}
	return &assets.Texture{Width: w, Height: h, Image: img}
}

func sprite(tex *assets.Texture, props render.Props) *render.Node {
	rect := geometry.Place(float64(tex.Width), float64(tex.Height), stage, geometry.FitCover)
	n := render.NewSprite(0, tex, rect)
	n.Props = props
	return n
}

func TestNewRejectsBadStage(t *testing.T) {
	_, err := New(geometry.Size{})
	assert.Error(t, err)
	_, err = New(geometry.Size{Width: MaxEdge + 1, Height: 10})
	assert.Error(t, err)
}

func TestPresentSprite(t *testing.T) {
	s, err := New(stage)
	require.NoError(t, err)

	red := solid(10, 20, color.RGBA{R: 255, A: 255})
	require.NoError(t, s.Present(stage, []*render.Node{sprite(red, render.Shown())}))

	img := s.Snapshot()
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(50, 100))
	assert.Equal(t, 1, s.Frames())
}

func TestPresentSkipsHidden(t *testing.T) {
	s, _ := New(stage)
	red := solid(10, 20, color.RGBA{R: 255, A: 255})
	require.NoError(t, s.Present(stage, []*render.Node{sprite(red, render.Hidden())}))
	assert.Equal(t, color.RGBA{A: 255}, s.Snapshot().RGBAAt(50, 100))
}

func TestPresentAlphaAndOffset(t *testing.T) {
	s, _ := New(stage)
	white := solid(10, 20, color.White)

	half := render.Shown()
	half.Alpha = 0.5
	require.NoError(t, s.Present(stage, []*render.Node{sprite(white, half)}))
	px := s.Snapshot().RGBAAt(50, 100)
	assert.InDelta(t, 128, int(px.R), 2)

	slid := render.Shown()
	slid.OffsetX = stage.Width
	require.NoError(t, s.Present(stage, []*render.Node{sprite(white, slid)}))
	assert.Equal(t, color.RGBA{A: 255}, s.Snapshot().RGBAAt(50, 100), "slid off stage")
}

func TestPresentRotation(t *testing.T) {
	s, _ := New(stage)
	// a thin horizontal bar turned a quarter becomes vertical
	tex := solid(100, 4, color.White)
	n := render.NewSprite(0, tex, geometry.Rect{X: 0, Y: 98, Width: 100, Height: 4, Scale: 1})
	n.Props = render.Shown()
	n.Props.Rotation = math.Pi / 2

	require.NoError(t, s.Present(stage, []*render.Node{n}))
	img := s.Snapshot()
	assert.Equal(t, uint8(255), img.RGBAAt(50, 70).R)
	assert.Equal(t, uint8(0), img.RGBAAt(10, 100).R)
}

func TestPresentCaption(t *testing.T) {
	s, _ := New(stage)
	style := render.TextStyle{FontSizePx: 26, Color: "#ffffff", Align: "center",
		Shadow: render.Shadow{Color: "#000000", Blur: 10, Angle: math.Pi / 4, Distance: 2}}
	n := render.NewText(0, "HI", style, 50, 100)
	n.Props = render.Shown()
	require.NoError(t, s.Present(stage, []*render.Node{n}))

	img := s.Snapshot()
	lit := 0
	for y := 80; y < 120; y++ {
		for x := 30; x < 70; x++ {
			if img.RGBAAt(x, y).R > 200 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 20)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 5).R)
}

func TestPresentStageMismatch(t *testing.T) {
	s, _ := New(stage)
	assert.Error(t, s.Present(geometry.Size{Width: 10, Height: 10}, nil))
}

func TestSnapshotIsCopy(t *testing.T) {
	s, _ := New(stage)
	require.NoError(t, s.Present(stage, nil))
	snap := s.Snapshot()
	snap.Set(0, 0, color.White)
	assert.Equal(t, color.RGBA{A: 255}, s.Snapshot().RGBAAt(0, 0))

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())
}

func TestWritePNG(t *testing.T) {
	s, _ := New(stage)
	require.NoError(t, s.Present(stage, nil))

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, s.WritePNG(path))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())

	assert.Error(t, s.WritePNG(filepath.Join(t.TempDir(), "missing", "frame.png")))
}

func TestParseColor(t *testing.T) {
	r, g, b, _ := parseColor("#ff0000", color.Black).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
	assert.Equal(t, color.Black, parseColor("nope", color.Black))
}
