// Package ui describes dashboard pages as a tree of nodes, independent of how
// they are rendered. The http package turns the tree into HTML.
package ui

import (
	"sort"
	"strings"

	"superdash/internal/core"
)

// Kind is the element type of a node.
type Kind string

const (
	KindDiv      Kind = "div"
	KindH1       Kind = "h1"
	KindH2       Kind = "h2"
	KindDropdown Kind = "dropdown"
	KindGraph    Kind = "graph"
	KindButton   Kind = "button"
	KindDownload Kind = "download"
	KindEmpty    Kind = "empty"
)

// Option is one dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Node is one element of the page tree. Only the fields relevant to Kind are
// set.
type Node struct {
	Kind     Kind              `json:"kind"`
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Children []Node            `json:"children,omitempty"`

	// Dropdown
	Options   []Option `json:"options,omitempty"`
	Value     string   `json:"value,omitempty"`
	Clearable bool     `json:"clearable,omitempty"`

	// Graph
	Figure   *core.Chart `json:"figure,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`

	// Button
	Clicks int `json:"n_clicks,omitempty"`
}

// Empty is the placeholder for an output slot with nothing to show.
func Empty() Node { return Node{Kind: KindEmpty} }

// Div returns a container node.
func Div(id string, style map[string]string, children ...Node) Node {
	return Node{Kind: KindDiv, ID: id, Style: style, Children: children}
}

// Heading returns an H1 or H2 node.
func Heading(level int, text string, style map[string]string) Node {
	k := KindH2
	if level == 1 {
		k = KindH1
	}
	return Node{Kind: k, Text: text, Style: style}
}

// Graph returns a graph node showing fig, drawn from imageURL.
func Graph(id string, fig core.Chart, imageURL string, style map[string]string) Node {
	return Node{Kind: KindGraph, ID: id, Figure: &fig, ImageURL: imageURL, Style: style}
}

// Dropdown returns a single-select node whose options are values in order.
func Dropdown(id string, values []string, selected string, clearable bool, style map[string]string) Node {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: v, Value: v}
	}
	return Node{Kind: KindDropdown, ID: id, Options: opts, Value: selected, Clearable: clearable, Style: style}
}

// IsEmpty reports whether n is the empty placeholder or the zero Node.
func (n Node) IsEmpty() bool { return n.Kind == KindEmpty || n.Kind == "" }

// Find returns the first node in the subtree with the given ID.
func (n Node) Find(id string) (Node, bool) {
	if n.ID == id {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := c.Find(id); ok {
			return found, true
		}
	}
	return Node{}, false
}

// CSS serialises Style as an inline style attribute, keys sorted.
func (n Node) CSS() string {
	if len(n.Style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(n.Style))
	for k := range n.Style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(cssProperty(k))
		b.WriteString(": ")
		b.WriteString(n.Style[k])
		b.WriteString(";")
	}
	return b.String()
}

// cssProperty converts camelCase keys to CSS property names.
func cssProperty(k string) string {
	var b strings.Builder
	for _, r := range k {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
