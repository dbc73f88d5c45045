// Package mcp exposes a parsed document to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/model"
	"github.com/specdex/specdex/internal/search"
)

// Server represents the MCP server instance.
type Server struct {
	serverName string
	version    string
	index      *search.Index
	toc        []model.TOCEntry
	report     *export.Report
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server over an already built index.
func NewServer(serverName, version string, index *search.Index, toc []model.TOCEntry, report *export.Report) (*Server, error) {
	if index == nil {
		return nil, fmt.Errorf("index cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false), // static tool set
	)

	s := &Server{
		serverName: serverName,
		version:    version,
		index:      index,
		toc:        toc,
		report:     report,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	tocSearchTool := mcp.NewTool(
		"toc_search",
		mcp.WithDescription("Search section titles and content of the parsed document"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query"),
		),
	)
	s.mcpServer.AddTool(tocSearchTool, s.handleTOCSearch)

	tocLookupTool := mcp.NewTool(
		"toc_lookup",
		mcp.WithDescription("Look up a section of the parsed document by its dotted identifier"),
		mcp.WithString("section_id",
			mcp.Required(),
			mcp.Description("Section identifier, e.g. 2.1.3"),
		),
	)
	s.mcpServer.AddTool(tocLookupTool, s.handleTOCLookup)

	docInfoTool := mcp.NewTool(
		"doc_info",
		mcp.WithDescription("Get summary statistics for the parsed document"),
	)
	s.mcpServer.AddTool(docInfoTool, s.handleDocInfo)
}

func (s *Server) handleTOCSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.index.Search(query)
	if err != nil {
		if errs.IsValidation(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No sections match %q", query)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d section(s) matching %q:\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. [%s] %s (page %d, %s match)\n", i+1, displayID(r.SectionID), r.Title, r.Page, r.MatchType)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleTOCLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionID, err := request.RequireString("section_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var matches []model.TOCEntry
	for _, e := range s.toc {
		if e.SectionID == sectionID {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("section not found: %s", sectionID)), nil
	}

	var sb strings.Builder
	for _, e := range matches {
		fmt.Fprintf(&sb, "%s\n", e.FullPath)
		fmt.Fprintf(&sb, "  Page: %d\n", e.Page)
		fmt.Fprintf(&sb, "  Level: %d\n", e.Level)
		if e.ParentID != "" {
			fmt.Fprintf(&sb, "  Parent: %s\n", e.ParentID)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleDocInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s v%s\n", s.serverName, s.version)
	fmt.Fprintf(&sb, "Indexed sections: %d\n", s.index.Size())

	if s.report != nil {
		fmt.Fprintf(&sb, "Document: %s\n", s.report.DocTitle)
		fmt.Fprintf(&sb, "Pages: %d\n", s.report.PageCount)
		fmt.Fprintf(&sb, "Sections with content: %d of %d (%.0f%%)\n",
			s.report.SectionsWithContent, s.report.ContentEntries, s.report.CoverageRatio*100)
		fmt.Fprintf(&sb, "Images: %d, Tables: %d, Words: %d\n",
			s.report.TotalImages, s.report.TotalTables, s.report.TotalWords)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// displayID substitutes a placeholder for unnumbered sections.
func displayID(sectionID string) string {
	if sectionID == "" {
		return "-"
	}
	return sectionID
}

// Run serves MCP requests over stdio until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
