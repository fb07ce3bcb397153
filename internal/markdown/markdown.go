// Package markdown renders a note's node tree as Markdown. It walks the
// same model as the plain-text extractor but emits syntax per node type,
// degrading silently on shapes it does not recognize: a malformed document
// must never abort a batch conversion.
package markdown

import (
	"fmt"
	"strings"

	"github.com/panelnotes/notesink/internal/notetree"
)

// Result holds the output of a conversion.
type Result struct {
	Markdown string
	Warnings []Warning
}

// WarningType categorizes conversion warnings.
type WarningType string

const (
	WarningUnknownNode      WarningType = "unknown_node"
	WarningMissingAttribute WarningType = "missing_attribute"
	WarningDepthExceeded    WarningType = "depth_exceeded"
)

// Warning records a non-fatal issue encountered during conversion.
type Warning struct {
	Type     WarningType
	NodeType string
	Message  string
}

const indentStep = "  "

// Convert renders the tree rooted at root as Markdown. It never fails;
// unknown node types degrade to their children and malformed nodes
// contribute nothing, with a Warning recorded for each.
func Convert(root *notetree.Node) Result {
	c := &converter{}
	blocks := c.renderBlocks(root, 0, 0)
	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}
	return Result{Markdown: out, Warnings: c.warnings}
}

type converter struct {
	warnings []Warning
}

func (c *converter) warn(t WarningType, nodeType, msg string) {
	c.warnings = append(c.warnings, Warning{Type: t, NodeType: nodeType, Message: msg})
}

// renderBlocks renders the children of n as a sequence of block strings.
// indent is the list nesting level, depth the absolute tree depth used for
// the recursion ceiling.
func (c *converter) renderBlocks(n *notetree.Node, indent, depth int) []string {
	if n == nil || depth > notetree.MaxDepth {
		if n != nil {
			c.warn(WarningDepthExceeded, n.Type, "node tree deeper than ceiling; subtree dropped")
		}
		return nil
	}
	var blocks []string
	for i := range n.Content {
		if b, ok := c.renderBlock(&n.Content[i], indent, depth+1); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// renderBlock renders a single block-level node. ok is false when the node
// contributes nothing.
func (c *converter) renderBlock(n *notetree.Node, indent, depth int) (string, bool) {
	if depth > notetree.MaxDepth {
		c.warn(WarningDepthExceeded, n.Type, "node tree deeper than ceiling; subtree dropped")
		return "", false
	}
	switch n.Type {
	case "paragraph":
		text := strings.TrimRight(c.renderInline(n, depth), " \n")
		if strings.TrimSpace(text) == "" {
			return "", false
		}
		return text, true
	case "heading":
		level, ok := n.IntAttr("level")
		if !ok {
			c.warn(WarningMissingAttribute, n.Type, "heading without level attr; using level 1")
			level = 1
		}
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		text := strings.TrimSpace(c.renderInline(n, depth))
		if text == "" {
			return "", false
		}
		return strings.Repeat("#", level) + " " + text, true
	case "bulletList":
		return c.renderList(n, indent, depth, false)
	case "orderedList":
		return c.renderList(n, indent, depth, true)
	case "blockquote":
		inner := c.renderBlocks(n, indent, depth)
		if len(inner) == 0 {
			return "", false
		}
		return quote(strings.Join(inner, "\n\n")), true
	case "codeBlock":
		return c.renderCodeBlock(n), true
	case "horizontalRule":
		return "---", true
	case "hardBreak":
		// Block-positioned hard breaks contribute nothing; inline ones are
		// handled in renderInline.
		return "", false
	case "text":
		// A bare text leaf at block level still reads as a paragraph.
		if strings.TrimSpace(n.Text) == "" {
			return "", false
		}
		return escapeText(n.Text), true
	default:
		c.warn(WarningUnknownNode, n.Type, fmt.Sprintf("unknown node type %q; rendering children", n.Type))
		if len(n.Content) > 0 {
			inner := c.renderBlocks(n, indent, depth)
			if len(inner) == 0 {
				return "", false
			}
			return strings.Join(inner, "\n\n"), true
		}
		return "", false
	}
}

// renderList renders bulletList/orderedList items one per line, nested
// lists indented proportionally to their depth.
func (c *converter) renderList(n *notetree.Node, indent, depth int, ordered bool) (string, bool) {
	if depth > notetree.MaxDepth {
		c.warn(WarningDepthExceeded, n.Type, "node tree deeper than ceiling; subtree dropped")
		return "", false
	}
	var lines []string
	num := 0
	for i := range n.Content {
		item := &n.Content[i]
		if item.Type != "listItem" && item.Type != "" {
			// Tolerate stray non-item children by rendering them in place.
			if b, ok := c.renderBlock(item, indent, depth+1); ok {
				lines = append(lines, b)
			}
			continue
		}
		num++
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", num)
		}
		lines = append(lines, c.renderListItem(item, marker, indent, depth+1)...)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// renderListItem renders one list item: its first paragraph goes on the
// marker line, nested lists and further blocks on following lines.
func (c *converter) renderListItem(item *notetree.Node, marker string, indent, depth int) []string {
	prefix := strings.Repeat(indentStep, indent)
	var lines []string
	first := true
	for i := range item.Content {
		child := &item.Content[i]
		switch child.Type {
		case "bulletList":
			if sub, ok := c.renderList(child, indent+1, depth+1, false); ok {
				lines = append(lines, strings.Split(sub, "\n")...)
			}
			continue
		case "orderedList":
			if sub, ok := c.renderList(child, indent+1, depth+1, true); ok {
				lines = append(lines, strings.Split(sub, "\n")...)
			}
			continue
		}
		b, ok := c.renderBlock(child, indent, depth+1)
		if !ok {
			continue
		}
		if first {
			lines = append(lines, prefix+marker+b)
			first = false
			continue
		}
		lines = append(lines, prefix+strings.Repeat(" ", len(marker))+b)
	}
	if first {
		// Item with no renderable content still marks its place.
		lines = append([]string{prefix + strings.TrimRight(marker, " ")}, lines...)
	}
	return lines
}

func (c *converter) renderCodeBlock(n *notetree.Node) string {
	lang := n.StringAttr("language")
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(lang)
	b.WriteString("\n")
	// Code content is emitted verbatim, no escaping.
	for i := range n.Content {
		child := &n.Content[i]
		if child.Text != "" {
			b.WriteString(child.Text)
		}
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// renderInline renders the inline content of a block node. Text leaves are
// escaped, hard breaks become Markdown line breaks, and unknown inline
// containers degrade to their children.
func (c *converter) renderInline(n *notetree.Node, depth int) string {
	var b strings.Builder
	c.inline(&b, n, depth)
	return b.String()
}

func (c *converter) inline(b *strings.Builder, n *notetree.Node, depth int) {
	if depth > notetree.MaxDepth {
		c.warn(WarningDepthExceeded, n.Type, "node tree deeper than ceiling; subtree dropped")
		return
	}
	for i := range n.Content {
		child := &n.Content[i]
		switch child.Type {
		case "text":
			b.WriteString(escapeText(child.Text))
		case "hardBreak":
			b.WriteString("  \n")
		default:
			if len(child.Content) == 0 {
				if child.Text != "" {
					// Unrecognized leaf that still carries text.
					b.WriteString(escapeText(child.Text))
				} else {
					c.warn(WarningUnknownNode, child.Type, fmt.Sprintf("unknown inline node type %q; skipped", child.Type))
				}
				continue
			}
			c.warn(WarningUnknownNode, child.Type, fmt.Sprintf("unknown inline node type %q; rendering children", child.Type))
			c.inline(b, child, depth+1)
		}
	}
}

// escapeText backslash-escapes characters that would otherwise read as
// Markdown syntax when they appear verbatim in source text.
func escapeText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quote prefixes every line with a blockquote marker.
func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
