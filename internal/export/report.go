package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/specdex/specdex/internal/model"
)

// Report compares the structural and content records of one run and
// summarizes coverage.
type Report struct {
	RunID               string      `json:"run_id"`
	DocTitle            string      `json:"doc_title"`
	PageCount           int         `json:"page_count"`
	TOCEntries          int         `json:"toc_entries"`
	ContentEntries      int         `json:"content_entries"`
	SectionsWithContent int         `json:"sections_with_content"`
	CoverageRatio       float64     `json:"coverage_ratio"`
	EmptySections       []string    `json:"empty_sections"`
	LevelCounts         map[int]int `json:"level_counts"`
	TotalImages         int         `json:"total_images"`
	TotalTables         int         `json:"total_tables"`
	TotalWords          int         `json:"total_words"`
}

// BuildReport derives the comparison report from a run's records.
func BuildReport(runID, docTitle string, pageCount int, toc []model.TOCEntry, content []model.ContentEntry) Report {
	r := Report{
		RunID:          runID,
		DocTitle:       docTitle,
		PageCount:      pageCount,
		TOCEntries:     len(toc),
		ContentEntries: len(content),
		EmptySections:  []string{},
		LevelCounts:    make(map[int]int),
	}

	for _, e := range toc {
		r.LevelCounts[e.Level]++
	}

	for _, c := range content {
		if c.HasContent {
			r.SectionsWithContent++
		} else {
			label := c.SectionID
			if label == "" {
				label = c.Title
			}
			r.EmptySections = append(r.EmptySections, label)
		}
		r.TotalImages += len(c.Images)
		r.TotalTables += len(c.Tables)
		r.TotalWords += c.WordCount
	}

	if len(content) > 0 {
		r.CoverageRatio = float64(r.SectionsWithContent) / float64(len(content))
	}

	return r
}

// WriteReport renders the report as indented JSON, atomically.
func (w *Writer) WriteReport(filename string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return w.writeAtomicRaw(filename, append(data, '\n'))
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, nil
}
