package notetree

import (
	"bytes"
	"encoding/json"
)

// Node is a single node of the rich-text document tree delivered by the
// notes API. A node is a leaf carrying Text, a container carrying Content,
// or neither (e.g. hardBreak). Trees arrive from a semi-trusted remote, so
// decoding tolerates malformed shapes instead of rejecting the document.
type Node struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// Kind classifies a node for traversal purposes.
type Kind int

const (
	// KindEmpty is a node with neither a text payload nor children.
	KindEmpty Kind = iota
	// KindText is a leaf carrying a text payload.
	KindText
	// KindContainer holds an ordered child sequence.
	KindContainer
)

// Kind reports how the node should be traversed. A malformed node carrying
// both a text payload and children is treated as a text leaf whose children
// are still walked by Walk.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindEmpty
	}
	if n.Text != "" {
		return KindText
	}
	if len(n.Content) > 0 {
		return KindContainer
	}
	return KindEmpty
}

// IntAttr returns an integer attribute, accepting the numeric shapes a
// generic JSON decode can produce. ok is false when absent or non-numeric.
func (n *Node) IntAttr(name string) (int, bool) {
	if n == nil || n.Attrs == nil {
		return 0, false
	}
	switch v := n.Attrs[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// StringAttr returns a string attribute, or "" when absent or not a string.
func (n *Node) StringAttr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	s, _ := n.Attrs[name].(string)
	return s
}

// rawNode is the decoding shape for Node. Text and Content are captured as
// raw JSON first so that a wrong-typed field degrades to its zero value
// instead of failing the whole document.
type rawNode struct {
	Type    json.RawMessage `json:"type"`
	Text    json.RawMessage `json:"text"`
	Attrs   json.RawMessage `json:"attrs"`
	Content json.RawMessage `json:"content"`
}

// UnmarshalJSON decodes a node tolerantly. Any field whose JSON type does
// not match the schema (for example content holding a string instead of an
// array) is dropped; the node itself still decodes.
func (n *Node) UnmarshalJSON(data []byte) error {
	*n = Node{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object at all. Degrade to an empty node rather than
		// propagating a decode error up through the document.
		return nil
	}
	if len(raw.Type) > 0 {
		var s string
		if err := json.Unmarshal(raw.Type, &s); err == nil {
			n.Type = s
		}
	}
	if len(raw.Text) > 0 {
		var s string
		if err := json.Unmarshal(raw.Text, &s); err == nil {
			n.Text = s
		}
	}
	if len(raw.Attrs) > 0 {
		var m map[string]any
		if err := json.Unmarshal(raw.Attrs, &m); err == nil {
			n.Attrs = m
		}
	}
	if len(raw.Content) > 0 {
		var kids []Node
		if err := json.Unmarshal(raw.Content, &kids); err == nil {
			n.Content = kids
		}
	}
	return nil
}

// Decode parses raw JSON into a node. ok is false when the input is empty,
// JSON null, or not an object; a malformed-but-object input still decodes
// with the bad fields dropped.
func Decode(data []byte) (*Node, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}
	if data[0] != '{' {
		return nil, false
	}
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, false
	}
	return &n, true
}

// FromAny converts a generically decoded JSON value (map[string]any shape)
// into a Node. ok is false when the value is not an object.
func FromAny(v any) (*Node, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	n := &Node{}
	if s, ok := m["type"].(string); ok {
		n.Type = s
	}
	if s, ok := m["text"].(string); ok {
		n.Text = s
	}
	if a, ok := m["attrs"].(map[string]any); ok {
		n.Attrs = a
	}
	if kids, ok := m["content"].([]any); ok {
		for _, k := range kids {
			if child, ok := FromAny(k); ok {
				n.Content = append(n.Content, *child)
			}
		}
	}
	return n, true
}

// MaxDepth bounds tree traversal. The trees come from an external API, so a
// pathologically deep document must not exhaust the stack; nodes past the
// ceiling are skipped.
const MaxDepth = 1000

// Walk visits n and its descendants in document order, calling fn with each
// node and its depth. fn returning false prunes the subtree below that node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(n *Node, depth int) bool) {
	if n == nil || depth > MaxDepth {
		return
	}
	if !fn(n, depth) {
		return
	}
	for i := range n.Content {
		walk(&n.Content[i], depth+1, fn)
	}
}
