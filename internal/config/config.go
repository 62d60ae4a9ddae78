package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// maxConcurrency caps parallel file loads. Post loads are cheap and
	// disk-bound; more workers than this only add file handles.
	maxConcurrency = 256

	// apiKeyMinLen is the minimum length for MCP_API_KEY.
	apiKeyMinLen = 16
)

// Config holds all environment-based configuration for postmatter.
type Config struct {
	// Directory holding the post files. Resolved to an absolute path.
	ContentDir string `env:"POSTMATTER_CONTENT_DIR" envDefault:"_posts"`

	// File extensions treated as posts.
	Extensions []string `env:"POSTMATTER_EXTENSIONS" envDefault:".md,.markdown,.html" envSeparator:","`

	// Maximum number of files loaded in parallel.
	Concurrency int `env:"POSTMATTER_CONCURRENCY" envDefault:"8"`

	// Keep the index current while serving.
	Watch bool `env:"POSTMATTER_WATCH" envDefault:"true"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// MCP server settings. An empty API key leaves /mcp unauthenticated.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8090"`
	APIKey     string `env:"MCP_API_KEY"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the API key to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := cfg.SetContentDir(cfg.ContentDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ContentDir) == "" {
		return fmt.Errorf("POSTMATTER_CONTENT_DIR must not be empty")
	}

	exts := c.Extensions[:0]
	for _, ext := range c.Extensions {
		if ext = strings.TrimSpace(ext); ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Extensions = exts
	if len(c.Extensions) == 0 {
		return fmt.Errorf("POSTMATTER_EXTENSIONS must list at least one extension")
	}

	if c.Concurrency < 1 || c.Concurrency > maxConcurrency {
		return fmt.Errorf("POSTMATTER_CONCURRENCY must be between 1 and %d, got %d", maxConcurrency, c.Concurrency)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if c.APIKey != "" && len(c.APIKey) < apiKeyMinLen {
		return fmt.Errorf("MCP_API_KEY too short (minimum %d characters)", apiKeyMinLen)
	}

	return nil
}

// SetContentDir sets the content directory and resolves it to an
// absolute path. Called by the CLI when a directory argument overrides
// POSTMATTER_CONTENT_DIR.
func (c *Config) SetContentDir(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving content dir to absolute path: %w", err)
	}

	c.ContentDir = absDir

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
