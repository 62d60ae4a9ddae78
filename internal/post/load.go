package post

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	tagNull  = "!!null"
	tagBool  = "!!bool"
	tagMerge = "!!merge"
)

// blockLineOffset converts a line number inside the front-matter block
// to a line number in the file. The block starts after the opening
// delimiter line.
const blockLineOffset = 1

// Load parses raw file content into a Post. The returned error is
// always a *LoadError whose Kind is ErrMissingDelimiter,
// ErrMissingRequiredField or ErrMalformedValue.
func Load(raw []byte) (*Post, error) {
	block, body, err := Split(raw)
	if err != nil {
		return nil, err
	}

	root, err := parseBlock(block)
	if err != nil {
		return nil, err
	}

	p := &Post{
		Published: true,
		FullView:  Bool(false),
		Comments:  Bool(false),
		Related:   Bool(false),
		Body:      string(body),
	}

	pairs, err := expandMerges(root)
	if err != nil {
		return nil, err
	}

	var hasLayout, hasTitle bool
	seen := make(map[string]bool, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		keyNode := pairs[i]
		valNode := deref(pairs[i+1])

		if keyNode.Kind != yaml.ScalarNode {
			return nil, malformed("", keyNode, "keys must be scalars")
		}
		key := keyNode.Value
		if seen[key] {
			return nil, malformed(key, keyNode, "duplicate key")
		}
		seen[key] = true

		switch key {
		case KeyLayout:
			p.Layout, hasLayout, err = requiredString(key, valNode)
		case KeyTitle:
			p.Title, hasTitle, err = requiredString(key, valNode)
		case KeyShortInfo:
			p.ShortInfo, _, err = scalarString(key, valNode)
		case KeyCategories:
			p.Categories, err = stringList(key, valNode)
		case KeyTags:
			p.Tags, err = stringList(key, valNode)
			p.Tags = dedupe(p.Tags)
		case KeyPublished:
			err = boolean(key, valNode, &p.Published)
		case KeyFullView:
			err = flag(key, valNode, &p.FullView)
		case KeyComments:
			err = flag(key, valNode, &p.Comments)
		case KeyRelated:
			err = flag(key, valNode, &p.Related)
		case KeyHideRelated:
			err = flag(key, valNode, &p.HideRelated)
		case KeyMermaid:
			err = flag(key, valNode, &p.Mermaid)
		case KeyLinkList:
			err = flag(key, valNode, &p.LinkList)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]*yaml.Node)
			}
			p.Extra[key] = stripNode(valNode)
		}
		if err != nil {
			return nil, err
		}
	}

	if !hasLayout {
		return nil, &LoadError{Kind: ErrMissingRequiredField, Field: KeyLayout}
	}
	if !hasTitle {
		return nil, &LoadError{Kind: ErrMissingRequiredField, Field: KeyTitle}
	}

	return p, nil
}

// parseBlock decodes the block into its root mapping node. An empty
// block yields an empty mapping.
func parseBlock(block []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, &LoadError{Kind: ErrMalformedValue, Msg: "invalid YAML", Err: err}
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}

	root := deref(doc.Content[0])
	if root.Kind == yaml.ScalarNode && root.ShortTag() == tagNull {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformed("", root, "front matter must be a mapping of keys to values")
	}
	return root, nil
}

// expandMerges returns the key/value pairs of m with "<<" merge keys
// applied. Keys written in m come first and win over merged ones; among
// several merged mappings the earlier one wins.
func expandMerges(m *yaml.Node) ([]*yaml.Node, error) {
	var own, sources []*yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		keyNode, valNode := m.Content[i], m.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode || keyNode.ShortTag() != tagMerge {
			own = append(own, keyNode, valNode)
			continue
		}

		src := deref(valNode)
		switch src.Kind {
		case yaml.MappingNode:
			sources = append(sources, src)
		case yaml.SequenceNode:
			for _, item := range src.Content {
				item = deref(item)
				if item.Kind != yaml.MappingNode {
					return nil, malformed(keyNode.Value, item, "merge list items must be mappings, got "+kindName(item))
				}
				sources = append(sources, item)
			}
		default:
			return nil, malformed(keyNode.Value, src, "merge value must be a mapping, got "+kindName(src))
		}
	}
	if len(sources) == 0 {
		return own, nil
	}

	taken := make(map[string]bool, len(own)/2)
	for i := 0; i < len(own); i += 2 {
		if own[i].Kind == yaml.ScalarNode {
			taken[own[i].Value] = true
		}
	}

	out := own
	for _, src := range sources {
		merged, err := expandMerges(src)
		if err != nil {
			return nil, err
		}
		for i := 0; i+1 < len(merged); i += 2 {
			k := merged[i]
			if k.Kind != yaml.ScalarNode || taken[k.Value] {
				continue
			}
			taken[k.Value] = true
			out = append(out, k, merged[i+1])
		}
	}
	return out, nil
}

func requiredString(key string, n *yaml.Node) (string, bool, error) {
	s, ok, err := scalarString(key, n)
	if err != nil || !ok || strings.TrimSpace(s) == "" {
		return "", false, err
	}
	return s, true, nil
}

// scalarString returns the scalar text of n. A null node is absent.
func scalarString(key string, n *yaml.Node) (string, bool, error) {
	if isNull(n) {
		return "", false, nil
	}
	if n.Kind != yaml.ScalarNode {
		return "", false, malformed(key, n, "expected a scalar, got "+kindName(n))
	}
	return n.Value, true, nil
}

// stringList accepts a sequence of scalars only. Absent and null both
// return nil; an explicit empty sequence returns an empty slice.
func stringList(key string, n *yaml.Node) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(key, n, "expected a list, got "+kindName(n))
	}

	items := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		if item.Kind != yaml.ScalarNode || isNull(item) {
			return nil, malformed(key, item, "list items must be strings, got "+kindName(item))
		}
		items = append(items, item.Value)
	}
	return items, nil
}

// boolean leaves dst untouched when n is null so the default survives.
func boolean(key string, n *yaml.Node, dst *bool) error {
	if isNull(n) {
		return nil
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != tagBool {
		return malformed(key, n, "expected true or false, got "+kindName(n))
	}
	return n.Decode(dst)
}

// flag stores a renderer flag verbatim as a string, bool or list.
func flag(key string, n *yaml.Node, dst *Value) error {
	if isNull(n) {
		return nil
	}

	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == tagBool {
			var b bool
			if err := n.Decode(&b); err != nil {
				return malformed(key, n, err.Error())
			}
			*dst = Bool(b)
			return nil
		}
		*dst = scalarValue(n.Value, n.ShortTag())
		return nil
	case yaml.SequenceNode:
		items, err := stringList(key, n)
		if err != nil {
			return err
		}
		*dst = List(items...)
		return nil
	default:
		return malformed(key, n, "expected a string, boolean or list, got "+kindName(n))
	}
}

func dedupe(items []string) []string {
	if items == nil {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == tagNull)
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return "null"
		}
		return "scalar"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	default:
		return fmt.Sprintf("node kind %d", n.Kind)
	}
}

func malformed(key string, n *yaml.Node, msg string) *LoadError {
	e := &LoadError{Kind: ErrMalformedValue, Field: key, Msg: msg}
	if n != nil && n.Line > 0 {
		e.Line = n.Line + blockLineOffset
	}
	return e
}

// stripNode deep-copies n with aliases resolved and anchors, comments
// and positions cleared, so that equal values compare equal no matter
// where they appeared in the file.
func stripNode(n *yaml.Node) *yaml.Node {
	n = deref(n)
	if n == nil {
		return nil
	}

	out := &yaml.Node{
		Kind:  n.Kind,
		Style: n.Style,
		Tag:   n.Tag,
		Value: n.Value,
	}
	if isNull(n) {
		// "key:" and "key: ~" both serialize back as null.
		out.Style = 0
		out.Tag = tagNull
		out.Value = "null"
	}
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = stripNode(c)
		}
	}
	return out
}
