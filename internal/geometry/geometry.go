package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultBaseSize is the length of the stage's longer logical edge
const DefaultBaseSize = 1080

var ErrInvalidAspect = errors.New("invalid aspect ratio")

// Fit controls how a texture is placed on the stage
type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
	FitFill    Fit = "fill"
)

// Valid reports whether f is one of the known fit modes
func (f Fit) Valid() bool {
	switch f {
	case FitCover, FitContain, FitFill:
		return true
	}
	return false
}

// Size is a stage size in pixels
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is a placement rectangle in stage coordinates. X and Y may be negative
// when the rectangle overflows the stage.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Scale  float64 `json:"scale" yaml:"scale"`
}

// ParseAspect parses "W/H" (":" is accepted too) into a width/height ratio
func ParseAspect(aspect string) (float64, error) {
	sep := "/"
	if !strings.Contains(aspect, sep) {
		sep = ":"
	}
	parts := strings.Split(strings.TrimSpace(aspect), sep)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAspect, aspect)
	}

	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAspect, aspect, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAspect, aspect, err)
	}
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAspect, aspect)
	}
	return w / h, nil
}

// StageSize computes the stage dimensions for an aspect ratio. The shorter
// edge equals base; landscape ratios scale the width, portrait and square
// ratios scale the height.
func StageSize(aspect string, base float64) (Size, error) {
	ratio, err := ParseAspect(aspect)
	if err != nil {
		return Size{}, err
	}
	if base <= 0 {
		base = DefaultBaseSize
	}

	if ratio > 1 {
		return Size{Width: base * ratio, Height: base}, nil
	}
	return Size{Width: base, Height: base / ratio}, nil
}

// Place computes where a texture of the given size lands on the stage.
//
// cover and contain compare the image aspect with the stage aspect; equal
// aspects take the else branch.
func Place(textureW, textureH float64, stage Size, mode Fit) Rect {
	if mode == FitFill || textureW <= 0 || textureH <= 0 {
		return Rect{X: 0, Y: 0, Width: stage.Width, Height: stage.Height, Scale: 1}
	}

	imgAspect := textureW / textureH
	stageAspect := stage.Width / stage.Height

	var scale float64
	if mode == FitContain {
		if imgAspect > stageAspect {
			scale = stage.Width / textureW
		} else {
			scale = stage.Height / textureH
		}
	} else {
		if imgAspect > stageAspect {
			scale = stage.Height / textureH
		} else {
			scale = stage.Width / textureW
		}
	}

	width := textureW * scale
	height := textureH * scale
	return Rect{
		X:      (stage.Width - width) / 2,
		Y:      (stage.Height - height) / 2,
		Width:  width,
		Height: height,
		Scale:  scale,
	}
}
