package api

import (
	"github.com/ivlev/storyboard/internal/export"
	"github.com/ivlev/storyboard/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ContentRequest struct {
	Scenes []timeline.Content `json:"scenes" binding:"required"`
}

type FieldRequest struct {
	Field timeline.Field `json:"field" binding:"required"`
	Value any            `json:"value"`
}

type SeekRequest struct {
	Ratio *float64 `json:"ratio" binding:"required"`
}

// ScrubRequest carries one pointer sample of a drag over the progress bar
type ScrubRequest struct {
	Phase string  `json:"phase" binding:"required,oneof=begin move end"`
	Ratio float64 `json:"ratio"`
}

type AspectRequest struct {
	Aspect string `json:"aspect" binding:"required"`
}

type FitRequest struct {
	Seconds float64 `json:"seconds" binding:"required,gt=0"`
}

type SubmitResponse struct {
	Receipt *export.Receipt `json:"receipt"`
	Payload *export.Payload `json:"payload"`
}
