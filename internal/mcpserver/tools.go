// Package mcpserver registers MCP tools that expose the post index.
// It adapts the site package to the MCP SDK's tool handler interface.
// Every tool is read-only.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexjbarnes/postmatter/internal/post"
	"github.com/alexjbarnes/postmatter/internal/site"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools adds all post tools to the given MCP server.
func RegisterTools(server *mcp.Server, s *site.Site) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "posts_list",
		Description: "List published blog posts with their title, layout, tags and categories, sorted by path. Set include_drafts to also list posts with published: false.",
	}, listHandler(s))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "post_get",
		Description: "Get the validated front matter of one post by path relative to the content root, with defaults applied. Set include_body to also return the raw Markdown/HTML body.",
	}, getHandler(s))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "posts_check",
		Description: "Report how many post files loaded, failed, are published or are drafts, and list every file whose front matter was rejected with the error kind, field and line.",
	}, checkHandler(s))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "posts_by_tag",
		Description: "List loaded posts that carry a tag or are filed under a category. Matching ignores case. Drafts are included and marked.",
	}, byTagHandler(s))
}

// --- Input types ---
// The MCP SDK infers JSON schema from these struct types via jsonschema tags.

// ListInput holds parameters for posts_list.
type ListInput struct {
	IncludeDrafts bool `json:"include_drafts,omitempty" jsonschema:"also list unpublished posts"`
}

// GetInput holds parameters for post_get.
type GetInput struct {
	Path        string `json:"path" jsonschema:"file path relative to the content root"`
	IncludeBody bool   `json:"include_body,omitempty" jsonschema:"include the post body"`
}

// CheckInput has no parameters.
type CheckInput struct{}

// ByTagInput holds parameters for posts_by_tag.
type ByTagInput struct {
	Tag string `json:"tag" jsonschema:"tag or category name"`
}

// --- Output types ---

// PostSummary is a short description of one post.
type PostSummary struct {
	Path       string   `json:"path"`
	Title      string   `json:"title"`
	Layout     string   `json:"layout"`
	Published  bool     `json:"published"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// ListResult is the response for posts_list and posts_by_tag.
type ListResult struct {
	Total int           `json:"total"`
	Posts []PostSummary `json:"posts"`
}

// GetResult is the response for post_get.
type GetResult struct {
	Path     string        `json:"path"`
	Metadata post.Metadata `json:"metadata"`
	Body     string        `json:"body,omitempty"`
}

// Failure describes one file that failed to load.
type Failure struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// CheckResult is the response for posts_check.
type CheckResult struct {
	Report   site.Report `json:"report"`
	Failures []Failure   `json:"failures"`
}

// --- Handlers ---

func listHandler(s *site.Site) mcp.ToolHandlerFor[ListInput, *ListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, *ListResult, error) {
		entries := s.Index().Published()
		if input.IncludeDrafts {
			entries = loaded(s.Index().Entries())
		}
		result := summarize(entries)
		return textResult(result), result, nil
	}
}

func getHandler(s *site.Site) mcp.ToolHandlerFor[GetInput, *GetResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, *GetResult, error) {
		p, err := s.Post(input.Path)
		if err != nil {
			return nil, nil, err
		}
		result := &GetResult{Path: input.Path, Metadata: p.Metadata()}
		if input.IncludeBody {
			result.Body = p.Body
		}
		return textResult(result), result, nil
	}
}

func checkHandler(s *site.Site) mcp.ToolHandlerFor[CheckInput, *CheckResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ CheckInput) (*mcp.CallToolResult, *CheckResult, error) {
		result := &CheckResult{
			Report:   s.Index().Report(),
			Failures: []Failure{},
		}
		for _, e := range s.Index().Failures() {
			result.Failures = append(result.Failures, NewFailure(e))
		}
		return textResult(result), result, nil
	}
}

func byTagHandler(s *site.Site) mcp.ToolHandlerFor[ByTagInput, *ListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ByTagInput) (*mcp.CallToolResult, *ListResult, error) {
		if input.Tag == "" {
			return nil, nil, fmt.Errorf("tag must not be empty")
		}

		seen := make(map[string]bool)
		var entries []site.Entry
		for _, e := range append(s.Index().ByTag(input.Tag), s.Index().ByCategory(input.Tag)...) {
			if !seen[e.Path] {
				seen[e.Path] = true
				entries = append(entries, e)
			}
		}
		site.SortEntries(entries)

		result := summarize(entries)
		return textResult(result), result, nil
	}
}

// NewFailure converts a failed entry into its reported form.
func NewFailure(e site.Entry) Failure {
	f := Failure{Path: e.Path, Kind: "ReadError", Message: e.Err.Error()}

	var le *post.LoadError
	if errors.As(e.Err, &le) {
		f.Kind = le.KindName()
		f.Field = le.Field
		f.Line = le.Line
	}
	return f
}

func loaded(entries []site.Entry) []site.Entry {
	out := entries[:0]
	for _, e := range entries {
		if e.OK() {
			out = append(out, e)
		}
	}
	return out
}

func summarize(entries []site.Entry) *ListResult {
	result := &ListResult{Total: len(entries), Posts: make([]PostSummary, 0, len(entries))}
	for _, e := range entries {
		result.Posts = append(result.Posts, PostSummary{
			Path:       e.Path,
			Title:      e.Post.Title,
			Layout:     e.Post.Layout,
			Published:  e.Post.Published,
			Tags:       e.Post.Tags,
			Categories: e.Post.Categories,
		})
	}
	return result
}

// textResult builds a CallToolResult with JSON text content from any value.
// This provides the unstructured content alongside the structured output
// that the SDK populates automatically.
func textResult(v interface{}) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error marshaling result: %v", err)}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
