package post

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const tagStr = "!!str"

// Marshal serializes p back into a file: the front-matter block in
// canonical key order followed by the body exactly as loaded. Unset
// optional values are omitted; defaults are written explicitly. Load
// of the output yields a Post equal to p.
func Marshal(p *Post) ([]byte, error) {
	root, err := p.node()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	buf.WriteString(Delimiter + "\n")
	buf.WriteString(p.Body)

	return buf.Bytes(), nil
}

// node builds the mapping node for p's metadata.
func (p *Post) node() (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	add := func(key string, val *yaml.Node) {
		root.Content = append(root.Content, strNode(key), val)
	}

	add(KeyLayout, strNode(p.Layout))
	add(KeyTitle, strNode(p.Title))
	if p.Categories != nil {
		add(KeyCategories, listNode(p.Categories))
	}
	if p.Tags != nil {
		add(KeyTags, listNode(p.Tags))
	}
	if p.ShortInfo != "" {
		add(KeyShortInfo, strNode(p.ShortInfo))
	}
	add(KeyPublished, boolNode(p.Published))

	flags := []struct {
		key string
		val Value
	}{
		{KeyFullView, p.FullView},
		{KeyComments, p.Comments},
		{KeyRelated, p.Related},
		{KeyHideRelated, p.HideRelated},
		{KeyMermaid, p.Mermaid},
		{KeyLinkList, p.LinkList},
	}
	for _, f := range flags {
		if n := valueNode(f.val); n != nil {
			add(f.key, n)
		}
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		if isKnownKey(k) {
			return nil, fmt.Errorf("extra key %q shadows a known field", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n := p.Extra[k]
		if n == nil {
			n = &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
		}
		add(k, n)
	}

	return root, nil
}

func valueNode(v Value) *yaml.Node {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		if v.numeric != "" {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: v.numeric, Value: s}
		}
		return strNode(s)
	case KindBool:
		b, _ := v.Bool()
		return boolNode(b)
	case KindList:
		items, _ := v.List()
		return listNode(items)
	default:
		return nil
	}
}

// strNode is tagged !!str so the encoder quotes text that would
// otherwise read back as a bool, number or null. YAML 1.1 booleans are
// quoted too because the renderer's parser still reads "yes" as true.
func strNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: tagStr, Value: s}
	if isLegacyBool(s) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func isLegacyBool(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "n", "no", "on", "off":
		return true
	}
	return false
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(b)}
}

func listNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, item := range items {
		n.Content = append(n.Content, strNode(item))
	}
	return n
}
