// Package source turns what the user points the CLI at into a scene
// content feed: a YAML feed, a folder of images, a single image or a PDF.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/storyboard/internal/timeline"
)

type Source interface {
	// Contents returns the scenes in display order
	Contents() ([]timeline.Content, error)
	Close() error
}

// Open picks the source implementation for path
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return NewImageSource(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return &FeedSource{path: path}, nil
	case ".pdf":
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

// FeedSource reads a YAML scene content feed
type FeedSource struct {
	path string
}

func (f *FeedSource) Contents() ([]timeline.Content, error) {
	return timeline.ReadContent(f.path)
}

func (f *FeedSource) Close() error { return nil }
