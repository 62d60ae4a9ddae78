package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// testContent creates a content dir and isolates the test from the
// caller's environment and .env file.
func testContent(t *testing.T, files map[string]string) string {
	t.Helper()

	for _, key := range []string{"POSTMATTER_CONTENT_DIR", "POSTMATTER_EXTENSIONS", "POSTMATTER_CONCURRENCY", "ENVIRONMENT", "LOG_LEVEL", "MCP_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return dir
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

var goodPosts = map[string]string{
	"2021-03-01-devcontainers.md": "---\nlayout: post\ntitle: Dev containers\ncategories: [tools]\ntags: [docker]\n---\nBody\n",
	"2021-06-12-registry.md":      "---\nlayout: post\ntitle: Registry\ntags: [docker, tls]\npublished: false\n---\nBody\n",
}

func TestRun_NoArgs(t *testing.T) {
	_, stderr, err := runCmd(t)
	require.Error(t, err)
	assert.Contains(t, stderr, "usage: postmatter")
}

func TestRun_UnknownCommand(t *testing.T) {
	_, _, err := runCmd(t, "publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "publish"`)
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestCheck_AllValid(t *testing.T) {
	dir := testContent(t, goodPosts)

	stdout, _, err := runCmd(t, "check", dir)
	require.NoError(t, err)
	assert.Equal(t, "2 files, 2 loaded, 0 failed (1 published, 1 drafts)\n", stdout)
}

func TestCheck_ReportsEveryFailure(t *testing.T) {
	files := map[string]string{
		"a.md": "---\nlayout: post\ntitle: A\n---\n",
		"b.md": "no front matter",
		"c.md": "---\nlayout: post\n---\n",
	}
	dir := testContent(t, files)

	stdout, _, err := runCmd(t, "check", dir)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, stdout, "b.md: [MissingDelimiter]")
	assert.Contains(t, stdout, `c.md: [MissingRequiredField] missing required field "title"`)
	assert.Contains(t, stdout, "3 files, 1 loaded, 2 failed")
}

func TestCheck_ContentDirFromEnv(t *testing.T) {
	dir := testContent(t, goodPosts)
	t.Setenv("POSTMATTER_CONTENT_DIR", dir)

	stdout, _, err := runCmd(t, "check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 files")
}

func TestCheck_TooManyArgs(t *testing.T) {
	dir := testContent(t, goodPosts)

	_, _, err := runCmd(t, "check", dir, dir)
	require.Error(t, err)
}

func TestCheck_MissingDir(t *testing.T) {
	testContent(t, nil)

	_, _, err := runCmd(t, "check", "/nonexistent/content")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening content dir")
}

func TestIndex_PublishedOnly(t *testing.T) {
	files := map[string]string{"broken.md": "oops"}
	for k, v := range goodPosts {
		files[k] = v
	}
	dir := testContent(t, files)

	stdout, stderr, err := runCmd(t, "index", dir)
	require.NoError(t, err)

	assert.Equal(t, int64(1), gjson.Get(stdout, "posts.#").Int())
	assert.Equal(t, "2021-03-01-devcontainers.md", gjson.Get(stdout, "posts.0.path").String())
	assert.Equal(t, "Dev containers", gjson.Get(stdout, "posts.0.metadata.title").String())
	assert.False(t, gjson.Get(stdout, "posts.0.metadata.comments").Bool())
	assert.Equal(t, int64(1), gjson.Get(stdout, "tags.docker").Int())
	assert.Equal(t, int64(1), gjson.Get(stdout, "categories.tools").Int())
	assert.Contains(t, stderr, "skipping post")
}

func TestIndex_Drafts(t *testing.T) {
	dir := testContent(t, goodPosts)

	stdout, _, err := runCmd(t, "index", "-drafts", dir)
	require.NoError(t, err)

	assert.Equal(t, int64(2), gjson.Get(stdout, "posts.#").Int())
	assert.Equal(t, "2021-06-12-registry.md", gjson.Get(stdout, "posts.1.path").String())
	assert.False(t, gjson.Get(stdout, "posts.1.metadata.published").Bool())
}

const messyPost = "---\ntags: [b, a]\ntitle: Messy\nlayout: post\n---\nBody stays.\n"

const tidyPost = "---\n" +
	"layout: post\n" +
	"title: Messy\n" +
	"tags: [b, a]\n" +
	"published: true\n" +
	"fullview: false\n" +
	"comments: false\n" +
	"related: false\n" +
	"---\n" +
	"Body stays.\n"

func TestFmt_PrintsCanonicalForm(t *testing.T) {
	dir := testContent(t, map[string]string{"p.md": messyPost})

	stdout, _, err := runCmd(t, "fmt", filepath.Join(dir, "p.md"))
	require.NoError(t, err)
	assert.Equal(t, tidyPost, stdout)
}

func TestFmt_Write(t *testing.T) {
	dir := testContent(t, map[string]string{"p.md": messyPost})
	path := filepath.Join(dir, "p.md")

	stdout, _, err := runCmd(t, "fmt", "-w", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tidyPost, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be gone")
}

func TestFmt_KeepsNumbersDropsComments(t *testing.T) {
	dir := testContent(t, map[string]string{
		"p.md": "---\n# header\nlayout: post # inline\ntitle: T\nmermaid: 10\nfullview: 2.5\n---\nBody # not yaml\n",
	})

	stdout, _, err := runCmd(t, "fmt", filepath.Join(dir, "p.md"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "fullview: 2.5\n")
	assert.Contains(t, stdout, "mermaid: 10\n")
	assert.NotContains(t, stdout, "# header")
	assert.NotContains(t, stdout, "# inline")
	assert.Contains(t, stdout, "Body # not yaml\n")

	help, _, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, help, "comments in the front matter are dropped")
}

func TestFmt_Diff(t *testing.T) {
	dir := testContent(t, map[string]string{"p.md": messyPost, "tidy.md": tidyPost})

	stdout, _, err := runCmd(t, "fmt", "-d", filepath.Join(dir, "p.md"), filepath.Join(dir, "tidy.md"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- "+filepath.Join(dir, "p.md"))
	assert.Contains(t, stdout, "@@")
	assert.Contains(t, stdout, "fullview: false")
	assert.NotContains(t, stdout, "tidy.md", "already formatted files produce no patch")
}

func TestFmt_InvalidFileContinues(t *testing.T) {
	dir := testContent(t, map[string]string{"bad.md": "nope", "p.md": messyPost})

	stdout, stderr, err := runCmd(t, "fmt", filepath.Join(dir, "bad.md"), filepath.Join(dir, "p.md"))
	require.ErrorIs(t, err, errChecksFailed)
	assert.Contains(t, stderr, "missing front matter delimiter")
	assert.Equal(t, tidyPost, stdout)
}

func TestFmt_NoFiles(t *testing.T) {
	_, _, err := runCmd(t, "fmt")
	require.Error(t, err)
}

func TestMakePatch_Equal(t *testing.T) {
	assert.Empty(t, makePatch("same", "same"))
}
