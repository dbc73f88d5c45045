package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdex/specdex/internal/config"
	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/model"
)

func newTestService(t *testing.T) (*Service, *config.Config) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, log), cfg
}

func TestService_ValidateInput(t *testing.T) {
	svc, cfg := newTestService(t)
	dir := t.TempDir()

	emptyPDF := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(emptyPDF, nil, 0o640))

	textFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("hello"), 0o640))

	garbagePDF := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbagePDF, []byte("not a pdf at all"), 0o640))

	bigPDF := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(bigPDF, []byte(strings.Repeat("x", 64)), 0o640))

	tests := []struct {
		name    string
		path    string
		maxSize int64
		wantMsg string
	}{
		{"empty path", "", 0, "cannot be empty"},
		{"missing file", filepath.Join(dir, "nope.pdf"), 0, "does not exist"},
		{"directory", dir, 0, "directory"},
		{"wrong extension", textFile, 0, "not a PDF"},
		{"empty file", emptyPDF, 0, "empty"},
		{"oversized file", bigPDF, 16, "too large"},
		{"unreadable pdf", garbagePDF, 0, "readable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.maxSize > 0 {
				cfg.MaxFileSize = tt.maxSize
			} else {
				cfg.MaxFileSize = config.DefaultMaxFileSize
			}

			err := svc.validateInput(tt.path)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err), "want validation error, got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestService_Parse_RejectsInvalidInput(t *testing.T) {
	svc, cfg := newTestService(t)
	cfg.InputPath = "/non/existent/spec.pdf"

	_, err := svc.Parse(t.Context())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestService_LoadIndex(t *testing.T) {
	svc, cfg := newTestService(t)

	toc := []model.TOCEntry{
		{SectionID: "1", Title: "Introduction", Page: 1, Level: 1, FullPath: "1 Introduction"},
		{SectionID: "2", Title: "Power Overview", Page: 5, Level: 1, FullPath: "2 Power Overview"},
	}
	content := []model.ContentEntry{
		{SectionID: "2", Title: "Power Overview", PageRange: model.PageRange{Start: 5, End: 9},
			Content: "Contracts are negotiated.", HasContent: true,
			Images: []model.ImageInfo{}, Tables: []model.TableInfo{}},
	}

	w := export.NewWriter(cfg.OutputDir)
	require.NoError(t, w.WriteTOC(cfg.TOCFile, toc))
	require.NoError(t, w.WriteContent(cfg.ContentFile, content))

	idx, gotTOC, err := svc.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Size())
	assert.Equal(t, toc, gotTOC)

	results, err := idx.Search("negotiated")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].SectionID)
}

func TestService_LoadIndex_TitleOnlyWithoutContent(t *testing.T) {
	svc, cfg := newTestService(t)

	toc := []model.TOCEntry{
		{SectionID: "1", Title: "Introduction", Page: 1, Level: 1, FullPath: "1 Introduction"},
	}
	require.NoError(t, export.NewWriter(cfg.OutputDir).WriteTOC(cfg.TOCFile, toc))

	idx, _, err := svc.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())

	results, err := idx.Search("introduction")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_LoadIndex_MissingTOC(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.LoadIndex()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse first")
}
