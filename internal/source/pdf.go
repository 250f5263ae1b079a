package source

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/storyboard/internal/timeline"
)

// maxCaptionRunes caps captions lifted from PDF page text
const maxCaptionRunes = 60

// FitzPDFSource makes one scene per PDF page, captioned with the first line
// of text found on the page.
type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) Contents() ([]timeline.Content, error) {
	contents := make([]timeline.Content, f.doc.NumPage())
	for i := range contents {
		contents[i].Image = f.path + "#page=" + strconv.Itoa(i+1)
		text, err := f.doc.Text(i)
		if err != nil {
			continue
		}
		contents[i].Caption = firstLine(text, maxCaptionRunes)
	}
	return contents, nil
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// firstLine returns the first non-blank line of text cut to max runes
func firstLine(text string, max int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > max {
			line = string([]rune(line)[:max])
		}
		return line
	}
	return ""
}
