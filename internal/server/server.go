// Package server exposes parsed documents over a small read-only HTTP
// API: full TOC listing, section lookup and free-text search.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/model"
	"github.com/specdex/specdex/internal/search"
)

// Server serves a single parsed document's records.
type Server struct {
	router chi.Router
	index  *search.Index
	toc    []model.TOCEntry
	report *export.Report
	log    *slog.Logger
}

// NewServer creates the HTTP server over an already built index.
func NewServer(index *search.Index, toc []model.TOCEntry, report *export.Report, log *slog.Logger) *Server {
	s := &Server{
		index:  index,
		toc:    toc,
		report: report,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/toc", s.handleTOC)
		r.Get("/toc/{sectionID}", s.handleSection)
		r.Get("/search", s.handleSearch)
		r.Get("/report", s.handleReport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleTOC returns every TOC entry, optionally filtered to one level.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	entries := s.toc

	if lvl := r.URL.Query().Get("level"); lvl != "" {
		level, err := strconv.Atoi(lvl)
		if err != nil || level < 1 {
			jsonError(w, "level must be a positive integer", http.StatusBadRequest)
			return
		}
		filtered := []model.TOCEntry{}
		for _, e := range entries {
			if e.Level == level {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	writeJSON(w, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

// handleSection looks up one section by id. Duplicate ids return every
// occurrence in document order.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	sectionID := chi.URLParam(r, "sectionID")

	var matches []model.TOCEntry
	for _, e := range s.toc {
		if e.SectionID == sectionID {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		jsonError(w, "section not found: "+sectionID, http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"count":   len(matches),
		"entries": matches,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := s.index.Search(query)
	if err != nil {
		if errs.IsValidation(err) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("search failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.report == nil {
		jsonError(w, "no report available", http.StatusNotFound)
		return
	}
	writeJSON(w, s.report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
