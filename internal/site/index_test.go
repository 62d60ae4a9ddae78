package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexjbarnes/postmatter/internal/post"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestBuild_DiscoversPostFiles(t *testing.T) {
	s := testSite(t)

	assert.Equal(t, []string{
		"_drafts/idea.md",
		"_posts/2021-03-01-devcontainers.md",
		"_posts/2021-06-12-registry.md",
		"_posts/2022-01-20-jq.markdown",
		"_posts/2023-02-02-healthchecks.html",
		"_posts/2023-05-05-broken.md",
		"_posts/2023-05-06-notitle.md",
	}, paths(s.Index().Entries()))
}

func TestBuild_FailuresDoNotAbortBatch(t *testing.T) {
	s := testSite(t, WithConcurrency(1))

	failures := s.Index().Failures()
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0].Err, post.ErrMissingDelimiter)
	assert.ErrorIs(t, failures[1].Err, post.ErrMissingRequiredField)
	assert.Nil(t, failures[0].Post)

	assert.Len(t, s.Index().Published(), 3)
}

func TestBuild_CustomExtensions(t *testing.T) {
	s := testSite(t, WithExtensions("MD"))

	for _, e := range s.Index().Entries() {
		assert.Equal(t, ".md", filepath.Ext(e.Path))
	}
	assert.Len(t, s.Index().Entries(), 5)
}

func TestBuild_RecordsFileMetadata(t *testing.T) {
	s := testSite(t)

	e, ok := s.Index().Get("_posts/2021-03-01-devcontainers.md")
	require.True(t, ok)
	assert.True(t, e.OK())
	assert.Positive(t, e.Size)
	assert.False(t, e.Modified.IsZero())
}

func TestBuild_UnicodePathsNormalized(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cafe\u0301.md", "---\nlayout: post\ntitle: Cafe\n---\n")

	s, err := New(context.Background(), dir)
	require.NoError(t, err)

	_, ok := s.Index().Get("caf\u00e9.md")
	assert.True(t, ok, "NFC lookup should find NFD file name")
}

func TestPublishedAndDrafts(t *testing.T) {
	s := testSite(t)

	assert.Equal(t, []string{
		"_posts/2021-03-01-devcontainers.md",
		"_posts/2021-06-12-registry.md",
		"_posts/2022-01-20-jq.markdown",
	}, paths(s.Index().Published()))

	assert.Equal(t, []string{
		"_drafts/idea.md",
		"_posts/2023-02-02-healthchecks.html",
	}, paths(s.Index().Drafts()))
}

func TestByTagAndCategory(t *testing.T) {
	s := testSite(t)

	assert.Equal(t, []string{
		"_posts/2021-03-01-devcontainers.md",
		"_posts/2021-06-12-registry.md",
		"_posts/2023-02-02-healthchecks.html",
	}, paths(s.Index().ByTag("Docker")))

	assert.Equal(t, []string{"_posts/2022-01-20-jq.markdown"}, paths(s.Index().ByTag("json")))

	assert.Equal(t, []string{
		"_posts/2021-03-01-devcontainers.md",
		"_posts/2022-01-20-jq.markdown",
	}, paths(s.Index().ByCategory("tools")))

	assert.Empty(t, s.Index().ByTag("rust"))
}

func TestTagAndCategoryCounts(t *testing.T) {
	s := testSite(t)

	assert.Equal(t, map[string]int{"docker": 2, "vscode": 1, "tls": 1, "JSON": 1}, s.Index().Tags())
	assert.Equal(t, map[string]int{"tools": 2, "devops": 1}, s.Index().Categories())
}

func TestReport(t *testing.T) {
	s := testSite(t)

	assert.Equal(t, Report{Files: 7, Loaded: 5, Failed: 2, Published: 3, Drafts: 2}, s.Index().Report())
}

func TestUpdate_ReloadsChangedFile(t *testing.T) {
	s := testSite(t)
	writeFile(t, s.Root(), "_posts/2023-05-06-notitle.md", "---\nlayout: post\ntitle: Fixed\n---\n")

	e := s.Index().Update("_posts/2023-05-06-notitle.md")
	require.NotNil(t, e)
	require.True(t, e.OK())
	assert.Equal(t, "Fixed", e.Post.Title)
	assert.Len(t, s.Index().Failures(), 1)
}

func TestUpdate_MissingFileRemovesEntry(t *testing.T) {
	s := testSite(t)
	require.NoError(t, os.Remove(filepath.Join(s.Root(), "_drafts", "idea.md")))

	assert.Nil(t, s.Index().Update("_drafts/idea.md"))
	_, ok := s.Index().Get("_drafts/idea.md")
	assert.False(t, ok)
}

func TestUpdate_IgnoresNonPostFiles(t *testing.T) {
	s := testSite(t)

	assert.Nil(t, s.Index().Update("assets/logo.png"))
	assert.Nil(t, s.Index().Update(".git/notes.md"))
	_, ok := s.Index().Get(".git/notes.md")
	assert.False(t, ok)
}

func TestRemove_Directory(t *testing.T) {
	s := testSite(t)

	s.Index().Remove("_posts")
	assert.Equal(t, []string{"_drafts/idea.md"}, paths(s.Index().Entries()))
}
