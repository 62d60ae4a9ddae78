package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alexjbarnes/postmatter/internal/post"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// Entry is the load result for one post file. Exactly one of Post and
// Err is set.
type Entry struct {
	Path     string
	Size     int64
	Modified time.Time
	Post     *post.Post
	Err      error
}

// OK reports whether the file loaded without error.
func (e Entry) OK() bool {
	return e.Err == nil && e.Post != nil
}

// Index maintains an in-memory map of post files to their load results.
// It is safe for concurrent use.
type Index struct {
	root        string
	extensions  []string
	concurrency int

	mu      sync.RWMutex
	entries map[string]*Entry // path -> entry
}

// NewIndex creates a new empty index rooted at the given directory.
func NewIndex(root string, extensions []string, concurrency int) *Index {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Index{
		root:        root,
		extensions:  extensions,
		concurrency: concurrency,
		entries:     make(map[string]*Entry),
	}
}

// Build walks the content directory and loads every post file. Loads
// run in parallel; a file that fails to load is recorded with its error
// and does not stop the build. Only walk errors and cancellation are
// returned.
func (idx *Index) Build(ctx context.Context) error {
	var paths []string

	err := filepath.WalkDir(idx.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == idx.root {
			return nil
		}

		if skipName(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !idx.isPost(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(idx.root, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return err
	}

	results := make([]*Entry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = idx.load(rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading posts: %w", err)
	}

	entries := make(map[string]*Entry, len(results))
	for _, e := range results {
		entries[e.Path] = e
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
	return nil
}

// load reads and parses one file. Read failures are recorded on the
// entry like parse failures.
func (idx *Index) load(rel string) *Entry {
	abs := filepath.Join(idx.root, rel)
	e := &Entry{Path: normPath(rel)}

	info, err := os.Stat(abs)
	if err != nil {
		e.Err = fmt.Errorf("reading file: %w", err)
		return e
	}
	e.Size = info.Size()
	e.Modified = info.ModTime().UTC()

	data, err := os.ReadFile(abs)
	if err != nil {
		e.Err = fmt.Errorf("reading file: %w", err)
		return e
	}

	e.Post, e.Err = post.Load(data)
	return e
}

// Update reloads a single path from disk. If the file no longer exists
// it is removed from the index. It returns the new entry, or nil when
// the path was removed or is not a post file.
func (idx *Index) Update(relPath string) *Entry {
	// The index key is NFC; the on-disk name may not be.
	diskPath := filepath.FromSlash(strings.Trim(filepath.ToSlash(relPath), "/"))
	key := normPath(relPath)
	if !idx.isPost(key) || skipPath(key) {
		return nil
	}

	info, err := os.Stat(filepath.Join(idx.root, diskPath))
	if err != nil || info.IsDir() {
		idx.Remove(key)
		return nil
	}

	e := idx.load(diskPath)

	idx.mu.Lock()
	idx.entries[e.Path] = e
	idx.mu.Unlock()

	copy := *e
	return &copy
}

// Remove deletes a path from the index. Removing a directory removes
// every entry beneath it.
func (idx *Index) Remove(relPath string) {
	relPath = normPath(relPath)
	prefix := relPath + "/"

	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.entries, relPath)
	for p := range idx.entries {
		if strings.HasPrefix(p, prefix) {
			delete(idx.entries, p)
		}
	}
}

// Get returns a copy of the entry for a path.
func (idx *Index) Get(relPath string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[normPath(relPath)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns copies of all entries sorted by path.
func (idx *Index) Entries() []Entry {
	return idx.filter(func(Entry) bool { return true })
}

// Published returns posts that loaded and have published set.
func (idx *Index) Published() []Entry {
	return idx.filter(func(e Entry) bool { return e.OK() && e.Post.Published })
}

// Drafts returns posts that loaded and have published set to false.
func (idx *Index) Drafts() []Entry {
	return idx.filter(func(e Entry) bool { return e.OK() && !e.Post.Published })
}

// Failures returns entries whose file failed to load.
func (idx *Index) Failures() []Entry {
	return idx.filter(func(e Entry) bool { return e.Err != nil })
}

// ByTag returns loaded posts carrying the tag, ignoring case.
func (idx *Index) ByTag(tag string) []Entry {
	return idx.filter(func(e Entry) bool { return e.OK() && e.Post.HasTag(tag) })
}

// ByCategory returns loaded posts filed under the category, ignoring case.
func (idx *Index) ByCategory(category string) []Entry {
	return idx.filter(func(e Entry) bool { return e.OK() && e.Post.InCategory(category) })
}

// Tags counts how many published posts carry each tag.
func (idx *Index) Tags() map[string]int {
	counts := make(map[string]int)
	for _, e := range idx.Published() {
		for _, t := range e.Post.Tags {
			counts[t]++
		}
	}
	return counts
}

// Categories counts how many published posts are in each category.
func (idx *Index) Categories() map[string]int {
	counts := make(map[string]int)
	for _, e := range idx.Published() {
		for _, c := range e.Post.Categories {
			counts[c]++
		}
	}
	return counts
}

// Report summarizes an index.
type Report struct {
	Files     int `json:"files"`
	Loaded    int `json:"loaded"`
	Failed    int `json:"failed"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
}

// Report returns totals over the current entries.
func (idx *Index) Report() Report {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	r := Report{Files: len(idx.entries)}
	for _, e := range idx.entries {
		if !e.OK() {
			r.Failed++
			continue
		}
		r.Loaded++
		if e.Post.Published {
			r.Published++
		} else {
			r.Drafts++
		}
	}
	return r
}

func (idx *Index) filter(keep func(Entry) bool) []Entry {
	idx.mu.RLock()
	result := make([]Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		if keep(*e) {
			result = append(result, *e)
		}
	}
	idx.mu.RUnlock()

	SortEntries(result)
	return result
}

func (idx *Index) isPost(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range idx.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// skipName reports whether a file or directory name is excluded from
// discovery: hidden entries, dependency trees and generated output.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		name == "node_modules" ||
		name == "_site"
}

// skipPath applies skipName to every component of a relative path.
func skipPath(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if skipName(part) {
			return true
		}
	}
	return false
}

// normPath converts a relative path to the index key form: forward
// slashes, NFC-normalized, no leading or trailing slash.
func normPath(relPath string) string {
	p := strings.Trim(filepath.ToSlash(relPath), "/")
	return norm.NFC.String(p)
}

// SortEntries orders entries by path, the order every query returns.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
