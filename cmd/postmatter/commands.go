package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alexjbarnes/postmatter/internal/post"
	"github.com/alexjbarnes/postmatter/internal/site"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// runCheck loads every post and prints one line per failure followed by
// a summary. Any failure makes the command fail.
func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, _, s, err := setup(ctx, fs, stderr)
	if err != nil {
		return err
	}

	for _, e := range s.Index().Failures() {
		fmt.Fprintln(stdout, formatFailure(e))
	}

	r := s.Index().Report()
	fmt.Fprintf(stdout, "%d files, %d loaded, %d failed (%d published, %d drafts)\n",
		r.Files, r.Loaded, r.Failed, r.Published, r.Drafts)

	if r.Failed > 0 {
		return errChecksFailed
	}
	return nil
}

// formatFailure renders a failed entry as "path: [Kind] message".
func formatFailure(e site.Entry) string {
	var le *post.LoadError
	if errors.As(e.Err, &le) {
		return fmt.Sprintf("%s: [%s] %v", e.Path, le.KindName(), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

type indexEntry struct {
	Path     string        `json:"path"`
	Metadata post.Metadata `json:"metadata"`
}

type indexOutput struct {
	Posts      []indexEntry   `json:"posts"`
	Tags       map[string]int `json:"tags"`
	Categories map[string]int `json:"categories"`
}

// runIndex prints the metadata of published posts as JSON, for the site
// assembler to consume. Files that fail to load are left out and logged.
func runIndex(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(stderr)
	drafts := fs.Bool("drafts", false, "include posts with published: false")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, logger, s, err := setup(ctx, fs, stderr)
	if err != nil {
		return err
	}

	for _, e := range s.Index().Failures() {
		logger.Warn("skipping post",
			slog.String("path", e.Path),
			slog.String("error", e.Err.Error()),
		)
	}

	entries := s.Index().Published()
	if *drafts {
		entries = append(entries, s.Index().Drafts()...)
		site.SortEntries(entries)
	}

	out := indexOutput{
		Posts:      make([]indexEntry, 0, len(entries)),
		Tags:       s.Index().Tags(),
		Categories: s.Index().Categories(),
	}
	for _, e := range entries {
		out.Posts = append(out.Posts, indexEntry{Path: e.Path, Metadata: e.Post.Metadata()})
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runFmt rewrites the front matter of each file in canonical form. By
// default the result is printed; -d prints a patch instead and -w
// replaces the file.
func runFmt(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	write := fs.Bool("w", false, "write result to the file instead of stdout")
	diff := fs.Bool("d", false, "print a patch instead of the formatted file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("fmt needs at least one file")
	}

	failed := false
	for _, path := range fs.Args() {
		if err := formatFile(path, *write, *diff, stdout); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			failed = true
		}
	}

	if failed {
		return errChecksFailed
	}
	return nil
}

func formatFile(path string, write, diff bool, stdout io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	p, err := post.Load(raw)
	if err != nil {
		return err
	}

	formatted, err := post.Marshal(p)
	if err != nil {
		return err
	}

	if diff {
		if patch := makePatch(string(raw), string(formatted)); patch != "" {
			fmt.Fprintf(stdout, "--- %s\n+++ %s\n%s", path, path, patch)
		}
	}

	if write {
		if bytes.Equal(raw, formatted) {
			return nil
		}
		return writeAtomic(path, formatted)
	}

	if !diff {
		_, err = stdout.Write(formatted)
	}
	return err
}

// makePatch returns a patch turning before into after, or "" when they
// are equal. The format is diff-match-patch's, which reads like a
// unified diff with URL-encoded special characters.
func makePatch(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}

// writeAtomic replaces path with data via a temp file in the same
// directory, keeping the original file mode. The temp name is hidden so
// a running watcher ignores it.
func writeAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".postmatter-write-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
