// Package outline reads the navigational structure of a PDF: the
// native bookmark tree, flattened into document order, with a fallback
// parser for printed table-of-contents pages.
package outline

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Entry is one outline record in document order: the raw bookmark
// title and the 1-based page it points at.
type Entry struct {
	RawTitle string
	Page     int
}

// Reader walks a PDF's bookmark tree into a flat ordered sequence.
type Reader struct {
	conf *model.Configuration
}

// NewReader creates an outline reader with relaxed validation, which
// tolerates the minor spec violations common in large vendor PDFs.
func NewReader() *Reader {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Reader{conf: conf}
}

// Read returns the outline entries of the PDF at path, flattened in
// document (pre-order) order. A document without an outline yields an
// empty slice, not an error.
func (r *Reader) Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	bookmarks, err := api.Bookmarks(f, r.conf)
	if err != nil {
		// pdfcpu reports a missing outline tree as an error; callers
		// treat it as an empty outline and fall back to printed pages.
		if strings.Contains(err.Error(), "no bookmarks") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}

	var entries []Entry
	flatten(bookmarks, &entries)
	return entries, nil
}

// flatten appends bookmarks and their kids to out in pre-order.
func flatten(bookmarks []pdfcpu.Bookmark, out *[]Entry) {
	for _, bm := range bookmarks {
		*out = append(*out, Entry{
			RawTitle: strings.TrimSpace(bm.Title),
			Page:     bm.PageFrom,
		})
		if len(bm.Kids) > 0 {
			flatten(bm.Kids, out)
		}
	}
}

// PageCount returns the number of pages of the PDF at path.
func (r *Reader) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// Validate checks that the file at path is a readable PDF.
func (r *Reader) Validate(path string) error {
	if err := api.ValidateFile(path, r.conf); err != nil {
		return fmt.Errorf("not a readable PDF: %w", err)
	}
	return nil
}
