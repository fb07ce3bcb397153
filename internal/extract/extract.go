package extract

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"

	"github.com/panelnotes/notesink/internal/notetree"
)

// Text flattens an arbitrary content value into plain text. The value may
// be nil, a plain string, an HTML-ish string, a node tree, or raw JSON for
// any of those. It never panics and never returns an error: malformed input
// degrades to "" or best-effort partial text.
//
// Plain strings without tag markers are returned verbatim. Everything that
// goes through structural extraction (HTML or node trees) has whitespace
// runs collapsed to single spaces and is trimmed.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return fromString(val)
	case *notetree.Node:
		return fromTree(val)
	case notetree.Node:
		return fromTree(&val)
	case json.RawMessage:
		return fromRaw(val)
	case []byte:
		return fromRaw(val)
	case map[string]any:
		if n, ok := notetree.FromAny(val); ok {
			return fromTree(n)
		}
		return ""
	default:
		return ""
	}
}

func fromRaw(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	// A JSON string value follows the plain-string path.
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return ""
		}
		return fromString(s)
	}
	if n, ok := notetree.Decode([]byte(trimmed)); ok {
		return fromTree(n)
	}
	return ""
}

func fromString(s string) string {
	if !looksLikeHTML(s) {
		return s
	}
	return fromHTML(s)
}

// looksLikeHTML reports whether the string contains a <...> tag-like span:
// a '<' followed by a tag-name start character and a closing '>'. Bare
// angle brackets such as "a < b and c > d" do not qualify.
func looksLikeHTML(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '<' || i+1 >= len(s) {
			continue
		}
		next := s[i+1]
		if !isTagStart(next) {
			continue
		}
		for j := i + 1; j < len(s); j++ {
			c := s[j]
			if c == '>' {
				return true
			}
			if c == '<' {
				break
			}
		}
	}
	return false
}

func isTagStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '/' || c == '!'
}

// fromHTML strips tags and decodes entities from HTML-ish input, then
// normalizes whitespace. The x/net/html parser tolerates broken markup and
// applies the named entity table for us. Separators are emitted only at
// block-element boundaries: inline markup must not split the surrounding
// word ("para<strong>graph</strong>s" reads "paragraphs").
func fromHTML(s string) string {
	root, err := html.Parse(strings.NewReader(s))
	if err != nil || root == nil {
		return ""
	}
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			name := strings.ToLower(n.Data)
			switch name {
			case "script", "style", "noscript":
				return
			}
			if isBlockTag(name) {
				b.WriteByte(' ')
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if n.Type == html.ElementNode && isBlockTag(strings.ToLower(n.Data)) {
			b.WriteByte(' ')
		}
	}
	visit(root)
	return strings.TrimSpace(collapseSpaces(b.String()))
}

func isBlockTag(name string) bool {
	switch name {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "hr",
		"ul", "ol", "div", "blockquote", "pre", "tr", "td", "th", "table":
		return true
	}
	return false
}

// fromTree collects the text runs of a node tree in document order. The
// root must expose a child sequence; a bare leaf or an empty object yields
// "". Runs are joined with single spaces and the result is collapsed and
// trimmed, so blank text nodes and empty paragraphs contribute nothing.
func fromTree(root *notetree.Node) string {
	if root == nil || len(root.Content) == 0 {
		return ""
	}
	var runs []string
	notetree.Walk(root, func(n *notetree.Node, depth int) bool {
		if depth == 0 {
			return true
		}
		if n.Kind() == notetree.KindText {
			runs = append(runs, n.Text)
		}
		return true
	})
	if len(runs) == 0 {
		return ""
	}
	return strings.TrimSpace(collapseSpaces(strings.Join(runs, " ")))
}

// collapseSpaces collapses runs of whitespace to single spaces.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
