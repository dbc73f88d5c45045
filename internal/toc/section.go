// Package toc turns a flat outline sequence into the hierarchical
// table of contents: numbered section identifiers, parent links and
// per-section page ranges.
package toc

import (
	"regexp"
	"strings"
)

// sectionIDRe matches a leading dotted-numeral identifier such as
// "2.1.3" or "4." followed by the section title. Malformed identifiers
// (consecutive dots, trailing non-numerals) fail the whole match and
// leave the entry unnumbered.
var sectionIDRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.+)$`)

// ParseSectionID splits a raw outline title into its dotted numeric
// identifier and the remaining title text. Titles without a leading
// identifier return id == "".
func ParseSectionID(raw string) (id, title string) {
	trimmed := strings.TrimSpace(raw)
	m := sectionIDRe.FindStringSubmatch(trimmed)
	if m == nil {
		return "", trimmed
	}
	return m[1], strings.TrimSpace(m[2])
}

// Level returns the nesting depth of a dotted identifier: the number
// of dot-separated numeral groups. The empty identifier is level 1.
func Level(id string) int {
	if id == "" {
		return 1
	}
	return strings.Count(id, ".") + 1
}

// ParentID returns the identifier one level up ("2.1" for "2.1.3"),
// or "" for top-level identifiers.
func ParentID(id string) string {
	idx := strings.LastIndex(id, ".")
	if idx < 0 {
		return ""
	}
	return id[:idx]
}
