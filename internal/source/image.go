package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/timeline"
)

// ImageSource makes one uncaptioned scene per image. A directory yields its
// supported images in name order.
type ImageSource struct {
	paths []string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		if !assets.SupportedExt.Contains(strings.ToLower(filepath.Ext(path))) {
			return nil, fmt.Errorf("%w: %s", assets.ErrUnsupportedSource, path)
		}
		return &ImageSource{paths: []string{path}}, nil
	}

	paths, err := assets.ImagesInDir(path)
	if err != nil {
		return nil, err
	}
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) Contents() ([]timeline.Content, error) {
	contents := make([]timeline.Content, len(s.paths))
	for i, p := range s.paths {
		contents[i] = timeline.Content{Image: p}
	}
	return contents, nil
}

func (s *ImageSource) Close() error {
	return nil
}
