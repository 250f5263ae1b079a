package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ivlev/storyboard/internal/geometry"
)

// Field names an editable scene attribute
type Field string

const (
	FieldDuration           Field = "duration"
	FieldTransition         Field = "transition"
	FieldTransitionDuration Field = "transitionDuration"
	FieldFit                Field = "imageFit"
	FieldCaptionText        Field = "text.content"
	FieldCaptionFont        Field = "text.font"
	FieldCaptionFontSize    Field = "text.fontSize"
	FieldCaptionColor       Field = "text.color"
	FieldCaptionPosition    Field = "text.position"
)

// SetSceneField returns a copy of t with one attribute of one scene changed.
// Durations are clamped into range, never rejected. Order and identity are
// left untouched.
func (t *Timeline) SetSceneField(id string, field Field, value any) (*Timeline, error) {
	i := t.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}

	next := t.clone()
	s := &next.Scenes[i]

	switch field {
	case FieldDuration:
		v, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		s.Duration = ClampDuration(v)
	case FieldTransitionDuration:
		v, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		s.TransitionDuration = ClampTransitionDuration(v)
	case FieldTransition:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		s.Transition = TransitionKind(strings.ToLower(strings.TrimSpace(v)))
		if s.Transition == "" {
			s.Transition = TransitionFade
		}
	case FieldFit:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		fit := geometry.Fit(strings.ToLower(v))
		if !fit.Valid() {
			return nil, fmt.Errorf("%w: fit %q", ErrInvalidValue, v)
		}
		s.Fit = fit
	case FieldCaptionText:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		s.Caption.Text = norm.NFC.String(v)
	case FieldCaptionFont:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		s.Caption.FontFamily = v
	case FieldCaptionFontSize:
		v, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: font size %v", ErrInvalidValue, v)
		}
		s.Caption.FontSizePx = v
	case FieldCaptionColor:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		s.Caption.Color = v
	case FieldCaptionPosition:
		v, err := toString(value)
		if err != nil {
			return nil, err
		}
		pos := CaptionPosition(strings.ToLower(v))
		if !pos.Valid() {
			return nil, fmt.Errorf("%w: position %q", ErrInvalidValue, v)
		}
		s.Caption.Position = pos
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return next, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrInvalidValue, value)
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case TransitionKind:
		return string(v), nil
	case CaptionPosition:
		return string(v), nil
	case geometry.Fit:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrInvalidValue, value)
}
