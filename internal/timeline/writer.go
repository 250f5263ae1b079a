package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// contentFile is the on-disk shape of a scene content feed
type contentFile struct {
	Scenes []Content `yaml:"scenes"`
}

// WriteFile writes a timeline to a YAML file
func WriteFile(t *Timeline, path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a timeline from a YAML file. Numeric fields are clamped on
// the way in so a hand-edited file cannot exceed the valid ranges.
func ReadFile(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Timeline
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}
	for i := range t.Scenes {
		t.Scenes[i].Duration = ClampDuration(t.Scenes[i].Duration)
		t.Scenes[i].TransitionDuration = ClampTransitionDuration(t.Scenes[i].TransitionDuration)
	}
	return &t, nil
}

// ReadContent reads a scene content feed: a YAML document with a top-level
// scenes list of {id, image, caption}.
func ReadContent(path string) ([]Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f contentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse content %s: %w", path, err)
	}
	return f.Scenes, nil
}
