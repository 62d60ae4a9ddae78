// Package post loads and serializes the YAML front matter of blog post
// files. It does no I/O: callers hand it the raw file content and get a
// validated, defaulted record back.
package post

import (
	"gopkg.in/yaml.v3"
)

// Front-matter keys understood by the loader. Key names are part of the
// contract with the external renderer and must not change.
const (
	KeyLayout      = "layout"
	KeyTitle       = "title"
	KeyCategories  = "categories"
	KeyTags        = "tags"
	KeyShortInfo   = "shortinfo"
	KeyPublished   = "published"
	KeyFullView    = "fullview"
	KeyComments    = "comments"
	KeyRelated     = "related"
	KeyHideRelated = "hide-related"
	KeyMermaid     = "mermaid"
	KeyLinkList    = "link-list"
)

// knownKeys lists the keys in canonical serialization order.
var knownKeys = []string{
	KeyLayout,
	KeyTitle,
	KeyCategories,
	KeyTags,
	KeyShortInfo,
	KeyPublished,
	KeyFullView,
	KeyComments,
	KeyRelated,
	KeyHideRelated,
	KeyMermaid,
	KeyLinkList,
}

func isKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Post is one content file: its validated front matter plus the raw body.
// A Post is built once per load and not mutated afterwards.
type Post struct {
	Layout     string
	Title      string
	Categories []string
	// Tags keeps the first occurrence of each keyword in written order.
	Tags      []string
	ShortInfo string
	Published bool

	// Renderer flags. The loader passes them through unchanged; unset
	// ones stay unset unless a default is documented below.
	FullView    Value // default Bool(false)
	Comments    Value // default Bool(false)
	Related     Value // default Bool(false)
	HideRelated Value
	Mermaid     Value
	LinkList    Value

	// Extra holds keys the loader does not know about, position and
	// comment information stripped.
	Extra map[string]*yaml.Node

	Body string
}

// Metadata is the JSON view of a post's front matter.
type Metadata struct {
	Layout      string         `json:"layout"`
	Title       string         `json:"title"`
	Categories  []string       `json:"categories,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	ShortInfo   string         `json:"shortinfo,omitempty"`
	Published   bool           `json:"published"`
	FullView    any            `json:"fullview"`
	Comments    any            `json:"comments"`
	Related     any            `json:"related"`
	HideRelated any            `json:"hide-related,omitempty"`
	Mermaid     any            `json:"mermaid,omitempty"`
	LinkList    any            `json:"link-list,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Metadata returns the JSON view of p. Extra values that fail to decode
// are left out.
func (p *Post) Metadata() Metadata {
	m := Metadata{
		Layout:      p.Layout,
		Title:       p.Title,
		Categories:  p.Categories,
		Tags:        p.Tags,
		ShortInfo:   p.ShortInfo,
		Published:   p.Published,
		FullView:    p.FullView.Interface(),
		Comments:    p.Comments.Interface(),
		Related:     p.Related.Interface(),
		HideRelated: p.HideRelated.Interface(),
		Mermaid:     p.Mermaid.Interface(),
		LinkList:    p.LinkList.Interface(),
	}

	if len(p.Extra) > 0 {
		m.Extra = make(map[string]any, len(p.Extra))
		for k, n := range p.Extra {
			var v any
			if err := n.Decode(&v); err == nil {
				m.Extra[k] = v
			}
		}
	}

	return m
}

// HasTag reports whether the post carries the tag, ignoring case.
func (p *Post) HasTag(tag string) bool {
	return containsFold(p.Tags, tag)
}

// InCategory reports whether the post is filed under the category,
// ignoring case.
func (p *Post) InCategory(category string) bool {
	return containsFold(p.Categories, category)
}
