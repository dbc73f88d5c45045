// Package extract slices a PDF into per-section content records: the
// text, image descriptors and table descriptors within each section's
// page range.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ledongthuc/pdf"

	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/model"
)

// Config controls a content extraction run.
type Config struct {
	DocTitle     string
	ContentLimit int // bytes; 0 disables truncation
	Workers      int

	// Progress, when set, is called after each section completes with
	// the number of finished sections and the total.
	Progress func(done, total int)
}

// Extractor extracts section content with a fixed-size worker pool.
// Extraction failures degrade the affected entry and are logged, never
// fatal to the run.
type Extractor struct {
	cfg Config
	log *slog.Logger
}

// NewExtractor creates a content extractor.
func NewExtractor(cfg Config, log *slog.Logger) *Extractor {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{cfg: cfg, log: log}
}

// document serializes page access to a shared reader. The underlying
// reader keeps internal read-position state and is not safe for
// concurrent random access.
type document struct {
	mu     sync.Mutex
	reader *pdf.Reader
}

// Run extracts content for every TOC entry. ranges[i] is the page
// range of entries[i]. Workers pick entries independently; results are
// collated back into document order before returning.
func (e *Extractor) Run(ctx context.Context, path string, entries []model.TOCEntry, ranges []model.PageRange) ([]model.ContentEntry, error) {
	if len(entries) != len(ranges) {
		return nil, fmt.Errorf("entry/range count mismatch: %d vs %d", len(entries), len(ranges))
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	doc := &document{reader: reader}
	results := make([]model.ContentEntry, len(entries))

	var done atomic.Int64
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.extractSection(doc, entries[i], ranges[i])
				if e.cfg.Progress != nil {
					e.cfg.Progress(int(done.Add(1)), len(entries))
				}
			}
		}()
	}

dispatch:
	for i := range entries {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// extractSection builds the content record for a single TOC entry. A
// failing page degrades to an empty contribution and is logged.
func (e *Extractor) extractSection(doc *document, entry model.TOCEntry, pr model.PageRange) model.ContentEntry {
	var parts []string
	images := []model.ImageInfo{}
	tables := []model.TableInfo{}

	for pageNum := pr.Start; pageNum <= pr.End; pageNum++ {
		text, imgs, tbls, err := doc.extractPage(pageNum)
		if err != nil {
			e.log.Warn("page extraction degraded",
				"error", errs.NewProcessing(entry.SectionID, pageNum, err))
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
		images = append(images, imgs...)
		tables = append(tables, tbls...)
	}

	content := strings.Join(parts, "\n")
	wordCount := len(strings.Fields(content))
	if e.cfg.ContentLimit > 0 && len(content) > e.cfg.ContentLimit {
		// Hard cut at the limit; word boundaries are not preserved.
		content = content[:e.cfg.ContentLimit]
	}

	hasText := strings.TrimSpace(content) != ""
	hasMedia := len(images) > 0 || len(tables) > 0

	return model.ContentEntry{
		DocTitle:    e.cfg.DocTitle,
		SectionID:   entry.SectionID,
		Title:       entry.Title,
		PageRange:   pr,
		Content:     content,
		ContentType: contentType(hasText, hasMedia),
		HasContent:  hasText || hasMedia,
		WordCount:   wordCount,
		Images:      images,
		Tables:      tables,
	}
}

// contentType classifies a section by what was found in it.
func contentType(hasText, hasMedia bool) string {
	switch {
	case hasText && hasMedia:
		return model.ContentTypeMixed
	case hasText:
		return model.ContentTypeText
	case hasMedia:
		return model.ContentTypeMediaOnly
	default:
		return model.ContentTypeEmpty
	}
}

// extractPage reads the text, images and tables of one page under the
// document lock.
func (d *document) extractPage(pageNum int) (text string, images []model.ImageInfo, tables []model.TableInfo, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		// The content stream parser panics on some malformed pages.
		if r := recover(); r != nil {
			err = fmt.Errorf("page parser panic: %v", r)
		}
	}()

	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return "", nil, nil, fmt.Errorf("page %d out of range", pageNum)
	}

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil, nil, nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		// Keep going: images and tables may still be recoverable.
		text = ""
		err = nil
	}

	images = pageImages(page, pageNum)
	tables = DetectTables(page.Content().Text, pageNum)

	return text, images, tables, nil
}

// pageImages walks the page's XObject resources and describes each
// image found there.
func pageImages(page pdf.Page, pageNum int) []model.ImageInfo {
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return nil
	}

	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return nil
	}

	var images []model.ImageInfo
	for _, key := range xObjects.Keys() {
		obj := xObjects.Key(key)
		if obj.IsNull() {
			continue
		}

		subtype := obj.Key("Subtype")
		if subtype.IsNull() || subtype.Name() != "Image" {
			continue
		}

		info := model.ImageInfo{
			Page:   pageNum,
			Index:  len(images) + 1,
			Name:   key,
			Width:  int(obj.Key("Width").Int64()),
			Height: int(obj.Key("Height").Int64()),
		}
		if cs := obj.Key("ColorSpace"); !cs.IsNull() && cs.Kind() == pdf.Name {
			info.ColorSpace = cs.Name()
		}
		images = append(images, info)
	}

	return images
}
