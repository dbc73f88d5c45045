package outline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// PrintedTOCPageLimit bounds how far into the document the printed
	// table of contents is searched for.
	PrintedTOCPageLimit = 20

	// Text fragments on the same baseline within this tolerance belong
	// to one line.
	lineTolerance = 2.0
)

// printedTOCLineRe matches printed ToC lines with dotted leaders, such
// as "2.1.3 Protocol Overview .......... 45".
var printedTOCLineRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+?)\s+\.{2,}\s*(\d+)$`)

// ScanPrinted parses printed table-of-contents pages from the first
// maxPages pages of the document. It is the fallback when the PDF
// carries no native bookmark tree.
func ScanPrinted(path string, maxPages int) ([]Entry, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	limit := maxPages
	if reader.NumPage() < limit {
		limit = reader.NumPage()
	}

	var entries []Entry
	for pageNum := 1; pageNum <= limit; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		lines := pageLines(page)
		if !containsTOCMarker(lines) && len(entries) == 0 {
			continue
		}
		entries = append(entries, parsePrintedLines(lines)...)
	}

	return entries, nil
}

// pageLines reconstructs reading-order text lines from the positioned
// text fragments of a page.
func pageLines(page pdf.Page) []string {
	var texts []pdf.Text
	func() {
		// The content stream parser panics on some malformed pages.
		defer func() { _ = recover() }()
		texts = page.Content().Text
	}()
	return linesFromTexts(texts)
}

// linesFromTexts groups text fragments by baseline and joins each
// group left to right.
func linesFromTexts(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var sb strings.Builder
	currentY := sorted[0].Y
	flush := func() {
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
		sb.Reset()
	}

	for _, t := range sorted {
		if abs(t.Y-currentY) > lineTolerance {
			flush()
			currentY = t.Y
		}
		sb.WriteString(t.S)
	}
	flush()

	return lines
}

// containsTOCMarker reports whether any line looks like a printed ToC
// heading.
func containsTOCMarker(lines []string) bool {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "table of contents") || lower == "contents" {
			return true
		}
	}
	return false
}

// parsePrintedLines extracts outline entries from dotted-leader lines.
// The reconstructed raw title keeps the "id title" form so downstream
// parsing treats printed and bookmark entries alike.
func parsePrintedLines(lines []string) []Entry {
	var entries []Entry
	for _, line := range lines {
		m := printedTOCLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[3])
		if err != nil || page < 1 {
			continue
		}
		entries = append(entries, Entry{
			RawTitle: m[1] + " " + strings.TrimSpace(m[2]),
			Page:     page,
		})
	}
	return entries
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
