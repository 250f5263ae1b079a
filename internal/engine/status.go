package engine

import (
	"fmt"

	"github.com/ivlev/storyboard/internal/timeline"
)

// Status is a consistent snapshot of playback. Index always belongs to
// Elapsed since both are read under the same lock.
type Status struct {
	Index      int              `json:"activeSceneIndex"`
	Count      int              `json:"sceneCount"`
	SceneID    string           `json:"sceneId,omitempty"`
	Caption    string           `json:"caption,omitempty"`
	Elapsed    float64          `json:"elapsedSeconds"`
	Total      float64          `json:"totalDuration"`
	Ratio      float64          `json:"ratio"`
	Playing    bool             `json:"isPlaying"`
	Scrubbing  bool             `json:"isScrubbing"`
	Transition *timeline.Window `json:"transition,omitempty"`
	Aspect     string           `json:"aspect"`
	Ready      bool             `json:"ready"`
}

// Label is the "Scene i of N" line shown under the preview
func (st Status) Label() string {
	if st.Count == 0 {
		return "No scenes"
	}
	return fmt.Sprintf("Scene %d of %d", st.Index+1, st.Count)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	st := Status{
		Index:     s.active,
		Elapsed:   s.clock.Elapsed(),
		Total:     s.shown.Total(),
		Playing:   s.clock.Playing(),
		Scrubbing: s.scrub.Dragging(),
		Aspect:    s.aspect,
		Ready:     s.surface != nil,
	}
	if st.Total > 0 {
		st.Ratio = st.Elapsed / st.Total
	}

	tl := s.shown.Timeline()
	st.Count = tl.Len()
	if st.Index >= 0 && st.Index < st.Count {
		scene := tl.Scenes[st.Index]
		st.SceneID = scene.ID
		st.Caption = scene.Caption.Text
	}
	if st.Playing {
		st.Transition = s.shown.Resolve(st.Elapsed).Transition
	}
	return st
}
