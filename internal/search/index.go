// Package search builds an in-memory, case-insensitive index over TOC
// titles and section content. The index is rebuilt from freshly parsed
// records each run; nothing is persisted.
package search

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/model"
)

// Match type tags for Result.MatchType.
const (
	MatchTitle   = "title"
	MatchContent = "content"
)

// snippetRadius is the number of bytes of context kept on each side of
// a content match.
const snippetRadius = 60

// Result is one ranked search hit.
type Result struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Page      int    `json:"page"`
	MatchType string `json:"match_type"`
	Snippet   string `json:"snippet,omitempty"`
}

// Index holds the searchable records with pre-folded text. Title and
// section-id matches rank before content matches; within a rank, hits
// keep original document order.
type Index struct {
	minQueryLength int
	maxResults     int

	toc     []model.TOCEntry
	content []model.ContentEntry

	// case-folded columns, parallel to toc/content
	tocTitles    []string
	tocIDs       []string
	contentTexts []string
}

// NewIndex creates an empty index with the given query constraints.
func NewIndex(minQueryLength, maxResults int) *Index {
	return &Index{
		minQueryLength: minQueryLength,
		maxResults:     maxResults,
	}
}

// Build replaces the index contents with freshly parsed records.
func (idx *Index) Build(toc []model.TOCEntry, content []model.ContentEntry) {
	idx.toc = toc
	idx.content = content

	idx.tocTitles = make([]string, len(toc))
	idx.tocIDs = make([]string, len(toc))
	for i, e := range toc {
		idx.tocTitles[i] = strings.ToLower(e.Title)
		idx.tocIDs[i] = strings.ToLower(e.SectionID)
	}

	idx.contentTexts = make([]string, len(content))
	for i, c := range content {
		idx.contentTexts[i] = strings.ToLower(c.Content)
	}
}

// Size returns the number of indexed TOC entries.
func (idx *Index) Size() int {
	return len(idx.toc)
}

// Search returns ranked matches for a free-text query. A query shorter
// than the configured minimum length is a ValidationError and produces
// no partial results.
func (idx *Index) Search(query string) ([]Result, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < idx.minQueryLength {
		return nil, errs.NewValidation("search query must be at least %d characters", idx.minQueryLength)
	}
	folded := strings.ToLower(q)

	results := []Result{}
	matched := make(map[string]bool)

	// Title pass: TOC title or section id, document order.
	for i, e := range idx.toc {
		if len(results) >= idx.maxResults {
			return results, nil
		}
		if strings.Contains(idx.tocTitles[i], folded) || strings.Contains(idx.tocIDs[i], folded) {
			results = append(results, Result{
				SectionID: e.SectionID,
				Title:     e.Title,
				Page:      e.Page,
				MatchType: MatchTitle,
			})
			matched[entryKey(e.SectionID, e.Title, e.Page)] = true
		}
	}

	// Content pass: body text, document order, skipping sections that
	// already matched by title.
	for i, c := range idx.content {
		if len(results) >= idx.maxResults {
			return results, nil
		}
		if matched[entryKey(c.SectionID, c.Title, c.PageRange.Start)] {
			continue
		}
		pos := strings.Index(idx.contentTexts[i], folded)
		if pos < 0 {
			continue
		}
		results = append(results, Result{
			SectionID: c.SectionID,
			Title:     c.Title,
			Page:      c.PageRange.Start,
			MatchType: MatchContent,
			Snippet:   snippet(c.Content, pos, len(folded)),
		})
	}

	return results, nil
}

// entryKey identifies a section across the TOC and content record
// sets; duplicate section ids are disambiguated by title and page.
func entryKey(sectionID, title string, page int) string {
	return sectionID + "\x00" + title + "\x00" + strconv.Itoa(page)
}

// snippet cuts a context window around a match, aligned to rune
// boundaries.
func snippet(content string, pos, matchLen int) string {
	start := pos - snippetRadius
	if start < 0 {
		start = 0
	}
	end := pos + matchLen + snippetRadius
	if end > len(content) {
		end = len(content)
	}

	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}

	s := strings.TrimSpace(content[start:end])
	s = strings.Join(strings.Fields(s), " ")
	if start > 0 {
		s = "..." + s
	}
	if end < len(content) {
		s += "..."
	}
	return s
}
