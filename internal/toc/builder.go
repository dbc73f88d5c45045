package toc

import (
	"strings"

	"github.com/specdex/specdex/internal/model"
	"github.com/specdex/specdex/internal/outline"
)

// Builder converts a flat outline sequence into TOC entries with
// parent links. Output preserves document order; that ordering drives
// page-range computation and must not be re-sorted.
type Builder struct {
	docTitle       string
	keepUnnumbered bool
}

// NewBuilder creates a builder for the given document title. When
// keepUnnumbered is false, entries without a numeric identifier are
// dropped from the output.
func NewBuilder(docTitle string, keepUnnumbered bool) *Builder {
	return &Builder{
		docTitle:       docTitle,
		keepUnnumbered: keepUnnumbered,
	}
}

// Build parses section identifiers and assigns parent links using a
// stack of open ancestors. An entry's parent is the most recently seen
// entry one level up whose identifier is a strict dot-prefix of its
// own; without one the entry becomes a new top-level root. Duplicate
// identifiers are accepted as sibling occurrences.
func (b *Builder) Build(entries []outline.Entry) []model.TOCEntry {
	result := make([]model.TOCEntry, 0, len(entries))

	// stack of open ancestor entries, outermost first
	var stack []model.TOCEntry

	for _, raw := range entries {
		id, title := ParseSectionID(raw.RawTitle)
		if id == "" {
			if !b.keepUnnumbered {
				continue
			}
			result = append(result, model.TOCEntry{
				DocTitle: b.docTitle,
				Title:    title,
				Page:     raw.Page,
				Level:    1,
				FullPath: title,
			})
			continue
		}

		level := Level(id)
		for len(stack) >= level {
			stack = stack[:len(stack)-1]
		}

		parentID := ""
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.Level == level-1 && strings.HasPrefix(id, top.SectionID+".") {
				parentID = top.SectionID
			}
		}

		entry := model.TOCEntry{
			DocTitle:  b.docTitle,
			SectionID: id,
			Title:     title,
			Page:      raw.Page,
			Level:     level,
			ParentID:  parentID,
			FullPath:  id + " " + title,
		}
		result = append(result, entry)
		stack = append(stack, entry)
	}

	return result
}

// AssignPageRanges computes each entry's inclusive page range: from
// its own page up to the page before the next entry in document order
// at the same or a shallower level, or the document's last page. When
// two entries share a page the next entry wins it, leaving the earlier
// one a single-page range.
func AssignPageRanges(entries []model.TOCEntry, lastPage int) []model.PageRange {
	ranges := make([]model.PageRange, len(entries))

	for i, e := range entries {
		start := e.Page
		if start > lastPage {
			start = lastPage
		}
		end := lastPage
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Level <= e.Level {
				end = entries[j].Page - 1
				break
			}
		}
		if end > lastPage {
			end = lastPage
		}
		if end < start {
			end = start
		}
		ranges[i] = model.PageRange{Start: start, End: end}
	}

	return ranges
}
