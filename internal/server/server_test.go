package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/model"
	"github.com/specdex/specdex/internal/search"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	toc := []model.TOCEntry{
		{SectionID: "1", Title: "Introduction", Page: 1, Level: 1, FullPath: "1 Introduction"},
		{SectionID: "1.1", Title: "Purpose", Page: 2, Level: 2, ParentID: "1", FullPath: "1.1 Purpose"},
		{SectionID: "2", Title: "Power Overview", Page: 5, Level: 1, FullPath: "2 Power Overview"},
	}
	content := []model.ContentEntry{
		{SectionID: "2", Title: "Power Overview", PageRange: model.PageRange{Start: 5, End: 9},
			Content: "Explicit contracts are negotiated."},
	}

	idx := search.NewIndex(2, 10)
	idx.Build(toc, content)

	report := &export.Report{RunID: "run-1", DocTitle: "doc", PageCount: 20}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewServer(idx, toc, report, log)
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return rec, body
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_TOC(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/toc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["count"])

	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 3)
}

func TestServer_TOC_LevelFilter(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/toc?level=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, _ = get(t, s, "/api/v1/toc?level=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SectionLookup(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/toc/1.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = get(t, s, "/api/v1/toc/9.9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestServer_Search(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/search?q=power")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	results, ok := body["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	assert.Equal(t, "2", hit["section_id"])
	assert.Equal(t, search.MatchTitle, hit["match_type"])
}

func TestServer_Search_ContentMatchHasSnippet(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/search?q=negotiated")
	assert.Equal(t, http.StatusOK, rec.Code)

	results := body["results"].([]any)
	require.Len(t, results, 1)
	hit := results[0].(map[string]any)
	assert.Equal(t, search.MatchContent, hit["match_type"])
	assert.Contains(t, hit["snippet"], "negotiated")
}

func TestServer_Search_ShortQueryIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/search?q=a")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "at least")

	rec, _ = get(t, s, "/api/v1/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Report(t *testing.T) {
	s := newTestServer(t)

	rec, body := get(t, s, "/api/v1/report")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "run-1", body["run_id"])

	noReport := NewServer(search.NewIndex(2, 10), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec2 := httptest.NewRecorder()
	noReport.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	assert.Equal(t, http.StatusNotFound, rec2.Code)
}
