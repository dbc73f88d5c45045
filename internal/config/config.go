package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeParse  = "parse"
	ModeSearch = "search"
	ModeServe  = "serve"
	ModeStdio  = "stdio"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultContentLimit   = 50000             // bytes of section content kept per entry
	DefaultWorkers        = 4
	DefaultMaxResults     = 10
	DefaultMinQueryLength = 2

	// Default output file names
	DefaultTOCFile     = "toc.jsonl"
	DefaultContentFile = "content.jsonl"
	DefaultReportFile  = "report.json"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for a specdex invocation. It is built
// once at startup and passed read-only to each component.
type Config struct {
	// Run mode: "parse", "search", "serve" or "stdio"
	Mode string

	// Input configuration
	InputPath string
	DocTitle  string // overrides the title derived from the input file name

	// Output configuration
	OutputDir   string
	TOCFile     string
	ContentFile string
	ReportFile  string

	// Extraction configuration
	ContentLimit   int
	Workers        int
	KeepUnnumbered bool
	MaxFileSize    int64

	// Search configuration
	Query          string
	MaxResults     int
	MinQueryLength int

	// Server configuration (serve mode only)
	Host string
	Port int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:           ModeParse,
		OutputDir:      currentDir,
		TOCFile:        DefaultTOCFile,
		ContentFile:    DefaultContentFile,
		ReportFile:     DefaultReportFile,
		ContentLimit:   DefaultContentLimit,
		Workers:        DefaultWorkers,
		KeepUnnumbered: false,
		MaxFileSize:    DefaultMaxFileSize,
		MaxResults:     DefaultMaxResults,
		MinQueryLength: DefaultMinQueryLength,
		Host:           DefaultHost,
		Port:           DefaultPort,
		Version:        "1.0.0",
		ServerName:     "specdex",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.InputPath != "" {
		if expandedPath, err := filepath.Abs(cfg.InputPath); err == nil {
			cfg.InputPath = expandedPath
		}
	}
	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("SPECDEX")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("input", cfg.InputPath)
	viper.SetDefault("doctitle", cfg.DocTitle)
	viper.SetDefault("outdir", cfg.OutputDir)
	viper.SetDefault("tocfile", cfg.TOCFile)
	viper.SetDefault("contentfile", cfg.ContentFile)
	viper.SetDefault("reportfile", cfg.ReportFile)
	viper.SetDefault("contentlimit", cfg.ContentLimit)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("keepunnumbered", cfg.KeepUnnumbered)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("query", cfg.Query)
	viper.SetDefault("maxresults", cfg.MaxResults)
	viper.SetDefault("minquery", cfg.MinQueryLength)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'parse', 'search', 'serve' or 'stdio'")
	pflag.String("input", cfg.InputPath, "Path to the specification PDF (parse mode)")
	pflag.String("doctitle", cfg.DocTitle, "Document title override (defaults to the input file name)")
	pflag.String("outdir", cfg.OutputDir, "Directory for output files")
	pflag.String("tocfile", cfg.TOCFile, "TOC output file name (JSONL)")
	pflag.String("contentfile", cfg.ContentFile, "Content output file name (JSONL)")
	pflag.String("reportfile", cfg.ReportFile, "Validation report file name (JSON)")
	pflag.Int("contentlimit", cfg.ContentLimit, "Per-section content length limit in bytes (0 disables)")
	pflag.Int("workers", cfg.Workers, "Number of parallel extraction workers")
	pflag.Bool("keepunnumbered", cfg.KeepUnnumbered, "Keep outline entries without a numeric section id")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input PDF size in bytes")
	pflag.String("query", cfg.Query, "Search query (search mode)")
	pflag.Int("maxresults", cfg.MaxResults, "Maximum number of search results")
	pflag.Int("minquery", cfg.MinQueryLength, "Minimum search query length")
	pflag.String("host", cfg.Host, "Server host address (serve mode only)")
	pflag.Int("port", cfg.Port, "Server port (serve mode only)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "input", "doctitle", "outdir", "tocfile", "contentfile",
		"reportfile", "contentlimit", "workers", "keepunnumbered",
		"maxfilesize", "query", "maxresults", "minquery", "host", "port",
		"loglevel",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nspecdex - extract the section hierarchy and content of a specification PDF\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input=spec.pdf                          # parse into ./toc.jsonl + ./content.jsonl\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=spec.pdf --outdir=out --workers=8 # parallel parse into out/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=search --outdir=out --query=\"power negotiation\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=serve --outdir=out --port=8081     # HTTP search API\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --outdir=out                 # MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  SPECDEX_MODE          Run mode\n")
		fmt.Fprintf(os.Stderr, "  SPECDEX_INPUT         Input PDF path\n")
		fmt.Fprintf(os.Stderr, "  SPECDEX_OUTDIR        Output directory\n")
		fmt.Fprintf(os.Stderr, "  SPECDEX_WORKERS       Extraction worker count\n")
		fmt.Fprintf(os.Stderr, "  SPECDEX_LOGLEVEL      Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.InputPath = viper.GetString("input")
	cfg.DocTitle = viper.GetString("doctitle")
	cfg.OutputDir = viper.GetString("outdir")
	cfg.TOCFile = viper.GetString("tocfile")
	cfg.ContentFile = viper.GetString("contentfile")
	cfg.ReportFile = viper.GetString("reportfile")
	cfg.ContentLimit = viper.GetInt("contentlimit")
	cfg.Workers = viper.GetInt("workers")
	cfg.KeepUnnumbered = viper.GetBool("keepunnumbered")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Query = viper.GetString("query")
	cfg.MaxResults = viper.GetInt("maxresults")
	cfg.MinQueryLength = viper.GetInt("minquery")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeParse, ModeSearch, ModeServe, ModeStdio:
	default:
		return errors.New("mode must be one of 'parse', 'search', 'serve' or 'stdio'")
	}

	if c.Mode == ModeParse && c.InputPath == "" {
		return errors.New("input PDF path cannot be empty in parse mode")
	}

	if c.Mode == ModeServe && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	// Create the output directory if it does not exist yet
	if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	}

	if c.TOCFile == "" || c.ContentFile == "" {
		return errors.New("output file names cannot be empty")
	}

	if c.ContentLimit < 0 {
		return errors.New("content limit cannot be negative")
	}

	if c.Workers < 1 {
		return errors.New("worker count must be at least 1")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.MinQueryLength < 1 {
		return errors.New("minimum query length must be at least 1")
	}

	if c.MaxResults < 1 {
		return errors.New("maximum result count must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// TOCPath returns the full path of the TOC output file
func (c *Config) TOCPath() string {
	return filepath.Join(c.OutputDir, c.TOCFile)
}

// ContentPath returns the full path of the content output file
func (c *Config) ContentPath() string {
	return filepath.Join(c.OutputDir, c.ContentFile)
}

// ReportPath returns the full path of the validation report file
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportFile)
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, OutputDir: %s, Workers: %d, ContentLimit: %d, LogLevel: %s}",
		c.Mode, c.InputPath, c.OutputDir, c.Workers, c.ContentLimit, c.LogLevel)
}

// IsParseMode returns true if the tool runs a full parse
func (c *Config) IsParseMode() bool {
	return c.Mode == ModeParse
}

// IsServeMode returns true if the tool serves the HTTP query API
func (c *Config) IsServeMode() bool {
	return c.Mode == ModeServe
}

// IsStdioMode returns true if the tool serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
