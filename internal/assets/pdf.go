package assets

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
)

const pageFragment = "#page="

// IsPDFPage reports whether source points at a page of a PDF document
func IsPDFPage(source string) bool {
	path, _, _ := strings.Cut(source, "#")
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ParsePDFPage splits "deck.pdf#page=N" into the path and a zero based page
// index. A missing fragment means the first page.
func ParsePDFPage(source string) (string, int, error) {
	path, frag, found := strings.Cut(source, "#")
	if !found {
		return path, 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix("#"+frag, pageFragment))
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("%w: bad page in %s", ErrUnsupportedSource, source)
	}
	return path, n - 1, nil
}

// PDFLoader rasterises PDF pages with MuPDF
type PDFLoader struct {
	Root string
	DPI  int
}

func (l *PDFLoader) Load(ctx context.Context, source string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, page, err := ParsePDFPage(source)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, path)
	}

	// One document per load so concurrent loads never share MuPDF state
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range, document has %d", page+1, doc.NumPage())
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return doc.ImageDPI(page, float64(dpi))
}
