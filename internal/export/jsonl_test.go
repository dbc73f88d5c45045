package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdex/specdex/internal/model"
)

func sampleTOC() []model.TOCEntry {
	return []model.TOCEntry{
		{DocTitle: "doc", SectionID: "1", Title: "Introduction", Page: 1, Level: 1, FullPath: "1 Introduction"},
		{DocTitle: "doc", SectionID: "1.1", Title: "Purpose & <Scope>", Page: 2, Level: 2, ParentID: "1", FullPath: "1.1 Purpose & <Scope>"},
	}
}

func sampleContent() []model.ContentEntry {
	return []model.ContentEntry{
		{
			DocTitle:    "doc",
			SectionID:   "1",
			Title:       "Introduction",
			PageRange:   model.PageRange{Start: 1, End: 4},
			Content:     "Some text.",
			ContentType: model.ContentTypeText,
			HasContent:  true,
			WordCount:   2,
			Images:      []model.ImageInfo{},
			Tables:      []model.TableInfo{},
		},
	}
}

func TestWriter_WriteTOC_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteTOC("toc.jsonl", sampleTOC()))

	got, skipped, err := ReadTOC(filepath.Join(dir, "toc.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, sampleTOC(), got)
}

func TestWriter_WriteContent_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteContent("content.jsonl", sampleContent()))

	got, skipped, err := ReadContent(filepath.Join(dir, "content.jsonl"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, sampleContent(), got)
}

func TestWriter_OutputIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteTOC("toc.jsonl", sampleTOC()))
	first, err := os.ReadFile(filepath.Join(dir, "toc.jsonl"))
	require.NoError(t, err)

	require.NoError(t, w.WriteTOC("toc.jsonl", sampleTOC()))
	second, err := os.ReadFile(filepath.Join(dir, "toc.jsonl"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriter_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteTOC("toc.jsonl", sampleTOC()))
	require.NoError(t, w.WriteContent("content.jsonl", sampleContent()))
	require.NoError(t, w.WriteReport("report.json", Report{RunID: "r1"}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f.Name(), ".tmp-", "leftover temp file %s", f.Name())
	}
	assert.Len(t, files, 3)
}

func TestWriter_HTMLNotEscaped(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteTOC("toc.jsonl", sampleTOC()))
	data, err := os.ReadFile(filepath.Join(dir, "toc.jsonl"))
	require.NoError(t, err)

	assert.Contains(t, string(data), "<Scope>")
	assert.NotContains(t, string(data), `\u003c`)
}

func TestReadTOC_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toc.jsonl")

	lines := []string{
		`{"doc_title":"doc","section_id":"1","title":"Intro","page":1,"level":1,"parent_id":"","full_path":"1 Intro"}`,
		`not json at all`,
		``,
		`{"doc_title":"doc","section_id":"2","title":"Body","page":5,"level":1,"parent_id":"","full_path":"2 Body"}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o640))

	got, skipped, err := ReadTOC(path)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].SectionID)
	assert.Equal(t, "2", got[1].SectionID)
}

func TestReadTOC_MissingFile(t *testing.T) {
	_, _, err := ReadTOC(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestWriteReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	report := BuildReport("run-1", "doc", 20, sampleTOC(), sampleContent())
	require.NoError(t, w.WriteReport("report.json", report))

	got, err := ReadReport(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.Equal(t, report, *got)
}

func TestBuildReport(t *testing.T) {
	toc := sampleTOC()
	content := []model.ContentEntry{
		{SectionID: "1", Title: "Introduction", HasContent: true, WordCount: 100,
			Images: []model.ImageInfo{{Page: 1}}, Tables: []model.TableInfo{{Page: 2}, {Page: 3}}},
		{SectionID: "1.1", Title: "Purpose", HasContent: false},
	}

	r := BuildReport("run-1", "doc", 20, toc, content)

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 20, r.PageCount)
	assert.Equal(t, 2, r.TOCEntries)
	assert.Equal(t, 2, r.ContentEntries)
	assert.Equal(t, 1, r.SectionsWithContent)
	assert.InDelta(t, 0.5, r.CoverageRatio, 1e-9)
	assert.Equal(t, []string{"1.1"}, r.EmptySections)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, r.LevelCounts)
	assert.Equal(t, 1, r.TotalImages)
	assert.Equal(t, 2, r.TotalTables)
	assert.Equal(t, 100, r.TotalWords)
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport("run-1", "doc", 0, nil, nil)
	assert.Zero(t, r.CoverageRatio)
	assert.Empty(t, r.EmptySections)
}
