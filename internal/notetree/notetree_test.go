package notetree

import (
	"encoding/json"
	"testing"
)

func TestDecode_SimpleTree(t *testing.T) {
	raw := []byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hello"}]}]}`)
	n, ok := Decode(raw)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if n.Type != "doc" {
		t.Fatalf("expected doc root, got %q", n.Type)
	}
	if len(n.Content) != 1 || len(n.Content[0].Content) != 1 {
		t.Fatalf("unexpected shape: %+v", n)
	}
	leaf := n.Content[0].Content[0]
	if leaf.Kind() != KindText || leaf.Text != "hello" {
		t.Fatalf("expected text leaf 'hello', got %+v", leaf)
	}
}

func TestDecode_ContentNotAnArray(t *testing.T) {
	n, ok := Decode([]byte(`{"type":"doc","content":"not an array"}`))
	if !ok {
		t.Fatalf("malformed content must still decode as an object")
	}
	if len(n.Content) != 0 {
		t.Fatalf("expected no children, got %d", len(n.Content))
	}
	if n.Kind() != KindEmpty {
		t.Fatalf("expected empty kind, got %v", n.Kind())
	}
}

func TestDecode_WrongTypedFieldsDropped(t *testing.T) {
	raw := []byte(`{"type":42,"text":{"nested":true},"attrs":"nope","content":[{"type":"text","text":"ok"}]}`)
	n, ok := Decode(raw)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if n.Type != "" || n.Text != "" || n.Attrs != nil {
		t.Fatalf("wrong-typed fields should be dropped, got %+v", n)
	}
	if len(n.Content) != 1 || n.Content[0].Text != "ok" {
		t.Fatalf("well-formed children should survive, got %+v", n.Content)
	}
}

func TestDecode_NonObjectInputs(t *testing.T) {
	for _, raw := range []string{"", "null", `"just a string"`, "[1,2,3]", "42"} {
		if _, ok := Decode([]byte(raw)); ok {
			t.Fatalf("expected decode to reject %q", raw)
		}
	}
}

func TestDecode_NullChildTolerated(t *testing.T) {
	n, ok := Decode([]byte(`{"type":"doc","content":[null,{"type":"text","text":"x"}]}`))
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if len(n.Content) != 2 {
		t.Fatalf("expected two children, got %d", len(n.Content))
	}
	if n.Content[0].Kind() != KindEmpty {
		t.Fatalf("null child should decode to an empty node")
	}
	if n.Content[1].Text != "x" {
		t.Fatalf("sibling of null child lost: %+v", n.Content[1])
	}
}

func TestIntAttr(t *testing.T) {
	n := &Node{Type: "heading", Attrs: map[string]any{"level": float64(3), "name": "x"}}
	if lvl, ok := n.IntAttr("level"); !ok || lvl != 3 {
		t.Fatalf("expected level 3, got %d ok=%t", lvl, ok)
	}
	if _, ok := n.IntAttr("name"); ok {
		t.Fatalf("string attr must not report as int")
	}
	if _, ok := n.IntAttr("missing"); ok {
		t.Fatalf("missing attr must not report as int")
	}
	var nilNode *Node
	if _, ok := nilNode.IntAttr("level"); ok {
		t.Fatalf("nil node must not report attrs")
	}
}

func TestFromAny(t *testing.T) {
	var v any
	if err := json.Unmarshal([]byte(`{"type":"doc","content":[{"type":"text","text":"hi"}]}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	n, ok := FromAny(v)
	if !ok {
		t.Fatalf("expected conversion from map")
	}
	if len(n.Content) != 1 || n.Content[0].Text != "hi" {
		t.Fatalf("unexpected shape: %+v", n)
	}
	if _, ok := FromAny("string"); ok {
		t.Fatalf("non-map input must not convert")
	}
}

func TestWalk_DepthCeiling(t *testing.T) {
	// Build a chain deeper than the ceiling; the walk must terminate and
	// never reach the deepest node.
	depth := MaxDepth + 10
	leaf := Node{Type: "text", Text: "deep"}
	cur := leaf
	for i := 0; i < depth; i++ {
		cur = Node{Type: "paragraph", Content: []Node{cur}}
	}
	sawLeaf := false
	visited := 0
	Walk(&cur, func(n *Node, d int) bool {
		visited++
		if n.Text == "deep" {
			sawLeaf = true
		}
		return true
	})
	if sawLeaf {
		t.Fatalf("leaf below the depth ceiling must not be visited")
	}
	if visited == 0 {
		t.Fatalf("expected some nodes to be visited")
	}
}

func TestWalk_Prune(t *testing.T) {
	root := Node{Type: "doc", Content: []Node{
		{Type: "paragraph", Content: []Node{{Type: "text", Text: "inside"}}},
		{Type: "text", Text: "after"},
	}}
	var seen []string
	Walk(&root, func(n *Node, d int) bool {
		if n.Type == "paragraph" {
			return false
		}
		if n.Text != "" {
			seen = append(seen, n.Text)
		}
		return true
	})
	if len(seen) != 1 || seen[0] != "after" {
		t.Fatalf("prune did not skip subtree: %v", seen)
	}
}
