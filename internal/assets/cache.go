// Package assets loads scene images into textures and keeps them for the
// lifetime of an editing session.
package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

var ErrUnsupportedSource = errors.New("unsupported image source")

// LoadError reports a texture that could not be fetched or decoded
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Texture is a decoded image. It is immutable once published by the cache.
type Texture struct {
	Source string
	Width  int
	Height int
	Image  image.Image
}

// Loader turns a source reference into an image
type Loader interface {
	Load(ctx context.Context, source string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, source string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, source string) (image.Image, error) {
	return f(ctx, source)
}

// Cache memoises textures by source. Concurrent loads of one source share a
// single underlying fetch. Failures are not memoised.
type Cache struct {
	loader Loader

	mu         sync.RWMutex
	entries    map[string]*Texture
	generation uint64

	group   singleflight.Group
	fetches atomic.Int64
}

func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]*Texture),
	}
}

// Load returns the texture for source, fetching it at most once. The fetch
// is shared by every caller asking for source and runs without any single
// caller's cancellation; a caller whose ctx ends stops waiting for it.
func (c *Cache) Load(ctx context.Context, source string) (*Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, &LoadError{Source: source, Err: ErrUnsupportedSource}
	}
	if tex, ok := c.Get(source); ok {
		return tex, nil
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	flight := context.WithoutCancel(ctx)
	ch := c.group.DoChan(source, func() (interface{}, error) {
		// Double check, a previous flight may have finished meanwhile
		if tex, ok := c.Get(source); ok {
			return tex, nil
		}

		c.fetches.Add(1)
		img, err := c.loader.Load(flight, source)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				return nil, err
			}
			return nil, &LoadError{Source: source, Err: err}
		}

		b := img.Bounds()
		tex := &Texture{Source: source, Width: b.Dx(), Height: b.Dy(), Image: img}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[source] = tex
		}
		c.mu.Unlock()
		return tex, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Texture), nil
	}
}

// Get returns an already resolved texture
func (c *Cache) Get(source string) (*Texture, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tex, ok := c.entries[source]
	return tex, ok
}

// Len is the number of resolved textures
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetches counts how many times the underlying loader was invoked
func (c *Cache) Fetches() int64 {
	return c.fetches.Load()
}

// Purge drops every texture. Loads still in flight finish but their results
// are not kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]*Texture)
	c.generation++
	c.mu.Unlock()
}
