package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fetcher returns the raw bytes behind a source reference
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Mux routes a source to a fetcher by URL scheme and decodes the result.
// Sources without a scheme are treated as local files. PDF page references
// ("deck.pdf#page=2") are rasterised instead of decoded.
type Mux struct {
	fetchers map[string]Fetcher
	pages    Loader
}

func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for a scheme such as "file", "https" or "s3"
func (m *Mux) Handle(scheme string, f Fetcher) *Mux {
	m.fetchers[strings.ToLower(scheme)] = f
	return m
}

// HandlePDF registers the loader used for PDF page references
func (m *Mux) HandlePDF(l Loader) *Mux {
	m.pages = l
	return m
}

func (m *Mux) Load(ctx context.Context, source string) (image.Image, error) {
	if IsPDFPage(source) {
		if m.pages == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
		}
		return m.pages.Load(ctx, source)
	}

	f, ok := m.fetchers[schemeOf(source)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}

	data, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes png, jpeg, gif, webp, bmp and tiff data
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func schemeOf(source string) string {
	u, err := url.Parse(source)
	// single letter schemes are windows drive letters
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}
