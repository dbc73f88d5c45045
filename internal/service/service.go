// Package service orchestrates parse runs: input validation, outline
// reading, hierarchy building, content extraction and export.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/specdex/specdex/internal/config"
	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/extract"
	"github.com/specdex/specdex/internal/model"
	"github.com/specdex/specdex/internal/outline"
	"github.com/specdex/specdex/internal/search"
	"github.com/specdex/specdex/internal/toc"
)

// progressLogInterval controls how often extraction progress is logged.
const progressLogInterval = 50

// Service wires the parsing components together behind the operations
// the CLI and servers expose.
type Service struct {
	cfg     *config.Config
	log     *slog.Logger
	outline *outline.Reader
	writer  *export.Writer
}

// New creates a service from an immutable configuration.
func New(cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		outline: outline.NewReader(),
		writer:  export.NewWriter(cfg.OutputDir),
	}
}

// RunResult summarizes a completed parse run.
type RunResult struct {
	RunID          string
	DocTitle       string
	PageCount      int
	TOCEntries     int
	ContentEntries int
	TOCPath        string
	ContentPath    string
	ReportPath     string
}

// Parse runs the full pipeline for the configured input PDF and writes
// the TOC, content and report files. Output files are replaced
// atomically; a failed run leaves existing outputs untouched.
func (s *Service) Parse(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	log := s.log.With("run_id", runID)

	path := s.cfg.InputPath
	if err := s.validateInput(path); err != nil {
		return nil, err
	}

	pageCount, err := s.outline.PageCount(path)
	if err != nil {
		return nil, err
	}

	entries, err := s.outline.Read(path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		log.Warn("no bookmark outline found, scanning printed table of contents")
		entries, err = outline.ScanPrinted(path, outline.PrintedTOCPageLimit)
		if err != nil {
			return nil, err
		}
	}
	log.Info("outline read", "entries", len(entries), "pages", pageCount)

	docTitle := s.cfg.DocTitle
	if docTitle == "" {
		docTitle = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	builder := toc.NewBuilder(docTitle, s.cfg.KeepUnnumbered)
	tocEntries := builder.Build(entries)
	ranges := toc.AssignPageRanges(tocEntries, pageCount)
	log.Info("hierarchy built", "sections", len(tocEntries))

	extractor := extract.NewExtractor(extract.Config{
		DocTitle:     docTitle,
		ContentLimit: s.cfg.ContentLimit,
		Workers:      s.cfg.Workers,
		Progress: func(done, total int) {
			if done%progressLogInterval == 0 || done == total {
				log.Info("extraction progress", "done", done, "total", total)
			}
		},
	}, log)

	contentEntries, err := extractor.Run(ctx, path, tocEntries, ranges)
	if err != nil {
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}

	if err := s.writer.WriteTOC(s.cfg.TOCFile, tocEntries); err != nil {
		return nil, err
	}
	if err := s.writer.WriteContent(s.cfg.ContentFile, contentEntries); err != nil {
		return nil, err
	}

	report := export.BuildReport(runID, docTitle, pageCount, tocEntries, contentEntries)
	if err := s.writer.WriteReport(s.cfg.ReportFile, report); err != nil {
		return nil, err
	}
	log.Info("run complete",
		"sections_with_content", report.SectionsWithContent,
		"coverage", report.CoverageRatio,
		"images", report.TotalImages,
		"tables", report.TotalTables)

	return &RunResult{
		RunID:          runID,
		DocTitle:       docTitle,
		PageCount:      pageCount,
		TOCEntries:     len(tocEntries),
		ContentEntries: len(contentEntries),
		TOCPath:        s.cfg.TOCPath(),
		ContentPath:    s.cfg.ContentPath(),
		ReportPath:     s.cfg.ReportPath(),
	}, nil
}

// LoadIndex reads previously exported JSONL files from the output
// directory and builds the search index over them.
func (s *Service) LoadIndex() (*search.Index, []model.TOCEntry, error) {
	tocEntries, skippedTOC, err := export.ReadTOC(s.cfg.TOCPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load TOC records (run parse first): %w", err)
	}

	contentEntries, skippedContent, err := export.ReadContent(s.cfg.ContentPath())
	if err != nil {
		// Title-only search still works without content records.
		s.log.Warn("content records unavailable, title search only", "error", err)
		contentEntries = nil
	}

	if skippedTOC > 0 || skippedContent > 0 {
		s.log.Warn("skipped malformed records", "toc", skippedTOC, "content", skippedContent)
	}

	idx := search.NewIndex(s.cfg.MinQueryLength, s.cfg.MaxResults)
	idx.Build(tocEntries, contentEntries)
	s.log.Info("search index built", "toc_entries", len(tocEntries), "content_entries", len(contentEntries))

	return idx, tocEntries, nil
}

// validateInput checks the input file surface: existence, type,
// extension, size limit and PDF readability. All failures are
// ValidationErrors safe to show the caller.
func (s *Service) validateInput(path string) error {
	if path == "" {
		return errs.NewValidation("input path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errs.NewValidation("input file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access input file: %w", err)
	}

	if info.IsDir() {
		return errs.NewValidation("input path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return errs.NewValidation("input file is not a PDF: %s", path)
	}
	if info.Size() == 0 {
		return errs.NewValidation("input file is empty: %s", path)
	}
	if info.Size() > s.cfg.MaxFileSize {
		return errs.NewValidation("input file too large: %d bytes (max: %d bytes)", info.Size(), s.cfg.MaxFileSize)
	}

	if err := s.outline.Validate(path); err != nil {
		return errs.NewValidation("input is not a readable PDF: %s", path)
	}
	return nil
}
