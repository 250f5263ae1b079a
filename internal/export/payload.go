// Package export turns the current timeline into the document an external
// render job consumes and hands it to a submission endpoint.
package export

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/timeline"
)

var ErrNoTimeline = errors.New("no timeline to export")

// Payload is the render job document. It depends only on the timeline and
// the global settings, never on playback state.
type Payload struct {
	JobID           string                  `json:"jobId" yaml:"job_id"`
	FramesPerSecond int                     `json:"framesPerSecond" yaml:"frames_per_second"`
	ResolutionLabel string                  `json:"resolutionLabel" yaml:"resolution_label"`
	BoundaryPolicy  timeline.BoundaryPolicy `json:"boundaryPolicy" yaml:"boundary_policy"`
	Scenes          []timeline.Scene        `json:"scenes" yaml:"scenes"`
	GlobalSettings  config.GlobalSettings   `json:"globalSettings" yaml:"global_settings"`
}

// Build snapshots tl into a payload with a fresh job id
func Build(tl *timeline.Timeline, settings config.GlobalSettings) (*Payload, error) {
	if tl == nil {
		return nil, ErrNoTimeline
	}
	scenes := make([]timeline.Scene, len(tl.Scenes))
	copy(scenes, tl.Scenes)
	policy := tl.Policy
	if policy == "" {
		policy = timeline.TrailingWindow
	}
	return &Payload{
		JobID:           uuid.NewString(),
		FramesPerSecond: tl.FPS,
		ResolutionLabel: tl.Resolution,
		BoundaryPolicy:  policy,
		Scenes:          scenes,
		GlobalSettings:  settings,
	}, nil
}

// Duration is the playable length of the exported scenes under the
// payload's boundary policy
func (p *Payload) Duration() float64 {
	return (&timeline.Timeline{Policy: p.BoundaryPolicy, Scenes: p.Scenes}).TotalDuration()
}

func (p *Payload) JSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func (p *Payload) YAML() ([]byte, error) {
	return yaml.Marshal(p)
}
