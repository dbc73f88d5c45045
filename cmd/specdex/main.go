package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/specdex/specdex/internal/config"
	"github.com/specdex/specdex/internal/errs"
	"github.com/specdex/specdex/internal/export"
	"github.com/specdex/specdex/internal/mcp"
	"github.com/specdex/specdex/internal/server"
	"github.com/specdex/specdex/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log := setupLogging(cfg)
	svc := service.New(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch {
	case cfg.IsParseMode():
		err = runParse(ctx, svc, log)
	case cfg.IsServeMode():
		err = runServe(ctx, cfg, svc, log)
	case cfg.IsStdioMode():
		err = runStdio(ctx, cfg, svc)
	default:
		err = runSearch(cfg, svc)
	}

	if err != nil {
		if errs.IsValidation(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			log.Error("run failed", "mode", cfg.Mode, "error", err)
		}
		os.Exit(1)
	}
}

// setupLogging builds the process logger. Logs always go to stderr so
// stdout stays clean for search results and the MCP protocol.
func setupLogging(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// In stdio mode only surface problems unless debugging.
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		level = slog.LevelError
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

// runParse runs the full extraction pipeline once.
func runParse(ctx context.Context, svc *service.Service, log *slog.Logger) error {
	res, err := svc.Parse(ctx)
	if err != nil {
		return err
	}

	log.Info("parse finished",
		"run_id", res.RunID,
		"doc_title", res.DocTitle,
		"pages", res.PageCount,
		"toc_entries", res.TOCEntries,
		"content_entries", res.ContentEntries)

	fmt.Printf("Parsed %q (%d pages)\n", res.DocTitle, res.PageCount)
	fmt.Printf("  TOC entries:     %d -> %s\n", res.TOCEntries, res.TOCPath)
	fmt.Printf("  Content entries: %d -> %s\n", res.ContentEntries, res.ContentPath)
	fmt.Printf("  Report:          %s\n", res.ReportPath)
	return nil
}

// runSearch answers a one-shot query against previously parsed records.
func runSearch(cfg *config.Config, svc *service.Service) error {
	if cfg.Query == "" {
		return errs.NewValidation("search mode requires --query")
	}

	idx, _, err := svc.LoadIndex()
	if err != nil {
		return err
	}

	results, err := idx.Search(cfg.Query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No sections match %q\n", cfg.Query)
		return nil
	}

	fmt.Printf("Found %d section(s) matching %q:\n", len(results), cfg.Query)
	for i, r := range results {
		id := r.SectionID
		if id == "" {
			id = "-"
		}
		fmt.Printf("%2d. [%s] %s (page %d, %s match)\n", i+1, id, r.Title, r.Page, r.MatchType)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
	}
	return nil
}

// runServe exposes the parsed records over HTTP until SIGINT/SIGTERM.
func runServe(ctx context.Context, cfg *config.Config, svc *service.Service, log *slog.Logger) error {
	idx, toc, err := svc.LoadIndex()
	if err != nil {
		return err
	}

	report, err := export.ReadReport(cfg.ReportPath())
	if err != nil {
		log.Warn("report unavailable", "error", err)
		report = nil
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           server.NewServer(idx, toc, report, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Address())
		errCh <- srv.ListenAndServe()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalCh:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// runStdio serves MCP tools over stdio; the parent process controls the
// lifecycle.
func runStdio(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	idx, toc, err := svc.LoadIndex()
	if err != nil {
		return err
	}

	report, err := export.ReadReport(cfg.ReportPath())
	if err != nil {
		report = nil
	}

	mcpServer, err := mcp.NewServer(cfg.ServerName, cfg.Version, idx, toc, report)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return mcpServer.Run(ctx)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("specdex\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
