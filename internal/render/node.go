// Package render holds the renderable objects the preview engine drives and
// the surface contract that presents them.
package render

import (
	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/geometry"
)

type Kind int

const (
	KindSprite Kind = iota
	KindText
)

func (k Kind) String() string {
	if k == KindText {
		return "text"
	}
	return "sprite"
}

// Props are the per-frame animated properties of a node. Offsets are
// relative to the node's base placement.
type Props struct {
	Visible  bool    `json:"visible"`
	Alpha    float64 `json:"alpha"`
	OffsetX  float64 `json:"offsetX"`
	OffsetY  float64 `json:"offsetY"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// Hidden is the resting state of a node that is not on screen
func Hidden() Props {
	return Props{Scale: 1}
}

// Shown is the resting state of the active scene's nodes
func Shown() Props {
	return Props{Visible: true, Alpha: 1, Scale: 1}
}

// Shadow is a caption drop shadow
type Shadow struct {
	Color    string  `json:"color"`
	Blur     float64 `json:"blur"`
	Angle    float64 `json:"angle"`
	Distance float64 `json:"distance"`
}

// TextStyle describes how a caption is drawn
type TextStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSizePx float64 `json:"fontSize"`
	Color      string  `json:"color"`
	Align      string  `json:"align"`
	Shadow     Shadow  `json:"shadow"`
}

// Node is a sprite or a caption. Sprites are anchored at their top-left
// corner, text at its centre.
type Node struct {
	Kind  Kind
	Scene int

	// sprite
	Texture *assets.Texture
	Rect    geometry.Rect

	// text
	Text  string
	Style TextStyle
	X, Y  float64

	Props Props
}

func NewSprite(scene int, tex *assets.Texture, rect geometry.Rect) *Node {
	return &Node{Kind: KindSprite, Scene: scene, Texture: tex, Rect: rect, Props: Hidden()}
}

func NewText(scene int, text string, style TextStyle, x, y float64) *Node {
	return &Node{Kind: KindText, Scene: scene, Text: text, Style: style, X: x, Y: y, Props: Hidden()}
}

// Surface presents a frame. Nodes are passed in paint order.
type Surface interface {
	Present(stage geometry.Size, nodes []*Node) error
	Close() error
}

// NopSurface discards frames
type NopSurface struct{}

func (NopSurface) Present(geometry.Size, []*Node) error { return nil }
func (NopSurface) Close() error                         { return nil }
