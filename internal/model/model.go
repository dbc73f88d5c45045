// Package model defines the records produced by a parse run: structural
// TOC entries and per-section content entries. Values are created once
// per run and never mutated afterwards; re-parsing produces a fresh set.
package model

import "fmt"

// PageRange is an inclusive [Start, End] page interval attributed to
// one section. Start and End are 1-based and Start <= End.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String returns the range in "start-end" form.
func (p PageRange) String() string {
	return fmt.Sprintf("%d-%d", p.Start, p.End)
}

// Contains reports whether page falls inside the range.
func (p PageRange) Contains(page int) bool {
	return page >= p.Start && page <= p.End
}

// TOCEntry is one structural record of the document hierarchy.
// SectionID is the dotted numeric identifier ("2.1.3"), empty for
// unnumbered entries. ParentID references a SectionID that appears
// earlier in document order, or is empty for top-level roots.
type TOCEntry struct {
	DocTitle  string `json:"doc_title"`
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Page      int    `json:"page"`
	Level     int    `json:"level"`
	ParentID  string `json:"parent_id"`
	FullPath  string `json:"full_path"`
}

// ImageInfo describes one image placed on a page within a section's
// page range. Name is the XObject resource name within the page.
type ImageInfo struct {
	Page       int    `json:"page"`
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ColorSpace string `json:"colorspace,omitempty"`
}

// TableInfo describes one detected table. Data holds at most the first
// five rows of cell text.
type TableInfo struct {
	Page  int        `json:"page"`
	Index int        `json:"index"`
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Data  [][]string `json:"data"`
}

// Content type values for ContentEntry.ContentType.
const (
	ContentTypeText      = "text"
	ContentTypeMixed     = "mixed"
	ContentTypeMediaOnly = "media_only"
	ContentTypeEmpty     = "no_content"
)

// ContentEntry is the textual record for one section: the text, image
// and table descriptors found within its page range.
type ContentEntry struct {
	DocTitle    string      `json:"doc_title"`
	SectionID   string      `json:"section_id"`
	Title       string      `json:"title"`
	PageRange   PageRange   `json:"page_range"`
	Content     string      `json:"content"`
	ContentType string      `json:"content_type"`
	HasContent  bool        `json:"has_content"`
	WordCount   int         `json:"word_count"`
	Images      []ImageInfo `json:"images"`
	Tables      []TableInfo `json:"tables"`
}
