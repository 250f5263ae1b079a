// Package raster is a software render surface. It composites the preview
// frame into an RGBA image so it can be written out or served.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/render"
	"github.com/ivlev/storyboard/internal/system"
)

// MaxEdge bounds the stage edge a raster surface accepts
const MaxEdge = 8192

// glyphHeight is the cell height of the bitmap face captions are drawn with
const glyphHeight = 13.0

type Surface struct {
	mu         sync.Mutex
	canvas     *image.RGBA
	background color.Color
	face       font.Face
	frames     int
}

func New(stage geometry.Size) (*Surface, error) {
	w, h := int(math.Round(stage.Width)), int(math.Round(stage.Height))
	if w <= 0 || h <= 0 || w > MaxEdge || h > MaxEdge {
		return nil, fmt.Errorf("raster: unsupported stage %dx%d", w, h)
	}
	return &Surface{
		canvas:     image.NewRGBA(image.Rect(0, 0, w, h)),
		background: color.Black,
		face:       basicfont.Face7x13,
	}, nil
}

// Factory adapts New to the engine's surface factory signature
func Factory(stage geometry.Size) (render.Surface, error) {
	return New(stage)
}

// Present redraws the whole frame. Hidden or fully transparent nodes are
// skipped.
func (s *Surface) Present(stage geometry.Size, nodes []*render.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := int(math.Round(stage.Width)), int(math.Round(stage.Height))
	if b := s.canvas.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("raster: stage %dx%d does not match surface %dx%d", w, h, b.Dx(), b.Dy())
	}

	draw.Draw(s.canvas, s.canvas.Bounds(), image.NewUniform(s.background), image.Point{}, draw.Src)
	for _, n := range nodes {
		if !n.Props.Visible || n.Props.Alpha <= 0 || n.Props.Scale == 0 {
			continue
		}
		switch n.Kind {
		case render.KindSprite:
			s.drawSprite(n)
		case render.KindText:
			s.drawText(n)
		}
	}
	s.frames++
	return nil
}

func (s *Surface) drawSprite(n *render.Node) {
	if n.Texture == nil || n.Texture.Image == nil {
		return
	}
	src := n.Texture.Image
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}

	kx := n.Rect.Width / float64(sb.Dx()) * n.Props.Scale
	ky := n.Rect.Height / float64(sb.Dy()) * n.Props.Scale
	cx := n.Rect.X + n.Rect.Width/2 + n.Props.OffsetX
	cy := n.Rect.Y + n.Rect.Height/2 + n.Props.OffsetY
	scx := float64(sb.Min.X) + float64(sb.Dx())/2
	scy := float64(sb.Min.Y) + float64(sb.Dy())/2

	m := affine(kx, ky, n.Props.Rotation, cx, cy, scx, scy)
	draw.ApproxBiLinear.Transform(s.canvas, m, src, sb, draw.Over, alphaMask(n.Props.Alpha))
}

// affine maps source space onto the canvas: scale about the source centre,
// rotate, then move the centre to (cx, cy).
func affine(kx, ky, theta, cx, cy, scx, scy float64) f64.Aff3 {
	sin, cos := math.Sincos(theta)
	a, b := kx*cos, -ky*sin
	d, e := kx*sin, ky*cos
	return f64.Aff3{
		a, b, cx - (a*scx + b*scy),
		d, e, cy - (d*scx + e*scy),
	}
}

func alphaMask(alpha float64) *draw.Options {
	if alpha >= 1 {
		return nil
	}
	return &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})}
}

// drawText renders the caption with the bitmap face at its native size and
// scales the result up to the requested font size.
func (s *Surface) drawText(n *render.Node) {
	lines := strings.Split(n.Text, "\n")
	metrics := s.face.Metrics()
	lineH := metrics.Height.Ceil()
	width := 0
	for _, l := range lines {
		if adv := font.MeasureString(s.face, l).Ceil(); adv > width {
			width = adv
		}
	}
	if width == 0 {
		return
	}

	fg := parseColor(n.Style.Color, color.White)
	glyphs := s.rasterise(lines, width, lineH, fg)
	defer system.PutImage(glyphs)

	k := n.Style.FontSizePx / glyphHeight * n.Props.Scale
	if k <= 0 {
		k = n.Props.Scale
	}
	cx := n.X + n.Props.OffsetX
	cy := n.Y + n.Props.OffsetY
	gb := glyphs.Bounds()
	scx, scy := float64(gb.Dx())/2, float64(gb.Dy())/2

	if sh := n.Style.Shadow; sh.Distance > 0 && sh.Color != "" {
		shadow := s.rasterise(lines, width, lineH, parseColor(sh.Color, color.Black))
		defer system.PutImage(shadow)
		dx := sh.Distance * math.Cos(sh.Angle) * k
		dy := sh.Distance * math.Sin(sh.Angle) * k
		m := affine(k, k, n.Props.Rotation, cx+dx, cy+dy, scx, scy)
		draw.ApproxBiLinear.Transform(s.canvas, m, shadow, gb, draw.Over, alphaMask(n.Props.Alpha))
	}

	m := affine(k, k, n.Props.Rotation, cx, cy, scx, scy)
	draw.ApproxBiLinear.Transform(s.canvas, m, glyphs, gb, draw.Over, alphaMask(n.Props.Alpha))
}

func (s *Surface) rasterise(lines []string, width, lineH int, c color.Color) *image.RGBA {
	img := system.GetImage(image.Rect(0, 0, width, lineH*len(lines)))
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: s.face}
	ascent := s.face.Metrics().Ascent.Ceil()
	for i, l := range lines {
		adv := font.MeasureString(s.face, l).Ceil()
		d.Dot = fixed.P((width-adv)/2, i*lineH+ascent)
		d.DrawString(l)
	}
	return img
}

func parseColor(hex string, fallback color.Color) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}

// Frames counts presented frames
func (s *Surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Snapshot returns a copy of the last presented frame
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.canvas.Bounds())
	copy(out.Pix, s.canvas.Pix)
	return out
}

func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.Snapshot())
}

func (s *Surface) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Surface) Close() error { return nil }
