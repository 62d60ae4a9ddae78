package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// indexer is the part of Index the watcher drives.
type indexer interface {
	Update(relPath string) *Entry
	Remove(relPath string)
}

// Watcher keeps an index in step with filesystem changes under root.
type Watcher struct {
	root   string
	index  indexer
	logger *slog.Logger
}

// Watch monitors the content directory and keeps the index up to date.
// It blocks until the context is cancelled. Intended to run in a
// background goroutine next to the MCP server.
func (s *Site) Watch(ctx context.Context) error {
	w := &Watcher{root: s.root, index: s.index, logger: s.logger}
	return w.Run(ctx)
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher); err != nil {
		return fmt.Errorf("adding content dir to watcher: %w", err)
	}

	w.logger.Info("watching content directory", slog.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			w.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}
			// Non-fatal (e.g. too many watches); affected paths just
			// stop updating.
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// pathAdder is the part of fsnotify.Watcher handleEvent needs.
type pathAdder interface {
	Add(name string) error
	Remove(name string) error
}

// handleEvent processes a single fsnotify event, updating the index.
func (w *Watcher) handleEvent(watcher pathAdder, event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}

	relPath = filepath.ToSlash(relPath)
	if relPath == "." || skipPath(relPath) {
		return
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		// New directories need their own watch. Lstat so that a
		// symlink to a directory outside the root is not followed.
		if event.Has(fsnotify.Create) {
			if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
				w.addTree(watcher, event.Name)
				return
			}
		}

		w.update(relPath)
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.index.Remove(relPath)
		// Harmless if the path was not a watched directory.
		_ = watcher.Remove(event.Name)
		w.logger.Debug("post removed", slog.String("path", relPath))
	}
}

// update reloads one path and logs the outcome.
func (w *Watcher) update(relPath string) {
	e := w.index.Update(relPath)
	switch {
	case e == nil:
	case e.Err != nil:
		w.logger.Warn("post failed to load",
			slog.String("path", e.Path),
			slog.String("error", e.Err.Error()),
		)
	default:
		w.logger.Debug("post reloaded", slog.String("path", e.Path))
	}
}

// addTree watches a directory that appeared under root and indexes the
// files already inside it. A directory moved in, or one written to
// before its watch was added, produces no events for its contents.
func (w *Watcher) addTree(watcher pathAdder, dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != dir && skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				w.logger.Warn("watching new directory",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		w.update(filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		w.logger.Warn("scanning new directory",
			slog.String("path", dir),
			slog.String("error", err.Error()),
		)
	}
}

// addRecursive adds every non-skipped directory under root.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.root && skipName(d.Name()) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}
