// Package site discovers post files under a content directory, loads
// their front matter in parallel and keeps an in-memory index of the
// results for the site assembler. It has no dependency on MCP or HTTP.
package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/alexjbarnes/postmatter/internal/errors"
	"github.com/alexjbarnes/postmatter/internal/post"
)

// DefaultExtensions are the file extensions treated as posts.
var DefaultExtensions = []string{".md", ".markdown", ".html"}

// DefaultConcurrency bounds parallel file loads during a build.
const DefaultConcurrency = 8

// Option configures a Site.
type Option func(*options)

type options struct {
	extensions  []string
	concurrency int
	logger      *slog.Logger
}

// WithExtensions sets the file extensions treated as posts. Matching
// is case-insensitive; a missing leading dot is added.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = nil
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions = append(o.extensions, ext)
		}
	}
}

// WithConcurrency sets the maximum number of files loaded at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Site is a content directory and the index of its posts.
type Site struct {
	root   string
	index  *Index
	logger *slog.Logger
}

// New creates a Site rooted at the given directory and builds the
// initial index. Per-file load failures are recorded in the index and
// do not make New fail.
func New(ctx context.Context, root string, opts ...Option) (*Site, error) {
	if root == "" {
		return nil, fmt.Errorf("content path must not be empty")
	}

	o := options{
		extensions:  DefaultExtensions,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.extensions) == 0 {
		return nil, fmt.Errorf("at least one post extension is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving content path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("accessing content path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content path is not a directory: %s", abs)
	}

	s := &Site{
		root:   abs,
		index:  NewIndex(abs, o.extensions, o.concurrency),
		logger: o.logger,
	}

	if err := s.index.Build(ctx); err != nil {
		return nil, fmt.Errorf("building post index: %w", err)
	}

	r := s.index.Report()
	s.logger.Info("post index built",
		slog.String("root", abs),
		slog.Int("files", r.Files),
		slog.Int("loaded", r.Loaded),
		slog.Int("failed", r.Failed),
	)

	return s, nil
}

// Root returns the absolute path to the content root.
func (s *Site) Root() string {
	return s.root
}

// Index returns the site's post index.
func (s *Site) Index() *Index {
	return s.index
}

// Post returns the loaded post at a root-relative path. It returns
// ErrPostNotFound for unknown paths and the file's load error when the
// file failed to load.
func (s *Site) Post(relPath string) (*post.Post, error) {
	if err := validatePath(relPath); err != nil {
		return nil, err
	}

	e, ok := s.index.Get(normPath(relPath))
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPostNotFound, relPath)
	}
	if e.Err != nil {
		return nil, e.Err
	}
	return e.Post, nil
}

// validatePath rejects paths that could leave the content root.
func validatePath(relPath string) error {
	if relPath == "" || filepath.IsAbs(relPath) || strings.HasPrefix(filepath.ToSlash(relPath), "/") {
		return fmt.Errorf("%w: %q", apperrors.ErrPathNotAllowed, relPath)
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q", apperrors.ErrPathNotAllowed, relPath)
		}
	}
	return nil
}
