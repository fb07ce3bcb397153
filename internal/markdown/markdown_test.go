package markdown

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/panelnotes/notesink/internal/extract"
	"github.com/panelnotes/notesink/internal/notetree"
)

func textNode(s string) notetree.Node {
	return notetree.Node{Type: "text", Text: s}
}

func paragraph(children ...notetree.Node) notetree.Node {
	return notetree.Node{Type: "paragraph", Content: children}
}

func doc(children ...notetree.Node) *notetree.Node {
	return &notetree.Node{Type: "doc", Content: children}
}

func TestConvert_ParagraphAndHeading(t *testing.T) {
	tree := doc(
		notetree.Node{Type: "heading", Attrs: map[string]any{"level": float64(2)}, Content: []notetree.Node{textNode("Title")}},
		paragraph(textNode("Hello world")),
	)
	res := Convert(tree)
	want := "## Title\n\nHello world\n"
	if res.Markdown != want {
		t.Fatalf("expected %q, got %q", want, res.Markdown)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", res.Warnings)
	}
}

func TestConvert_HeadingLevelClampedAndDefaulted(t *testing.T) {
	tree := doc(
		notetree.Node{Type: "heading", Attrs: map[string]any{"level": float64(9)}, Content: []notetree.Node{textNode("Deep")}},
		notetree.Node{Type: "heading", Content: []notetree.Node{textNode("No level")}},
	)
	res := Convert(tree)
	if !strings.Contains(res.Markdown, "###### Deep") {
		t.Fatalf("level beyond 6 must clamp, got %q", res.Markdown)
	}
	if !strings.Contains(res.Markdown, "# No level") {
		t.Fatalf("missing level must default to 1, got %q", res.Markdown)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Type != WarningMissingAttribute {
		t.Fatalf("expected one missing-attribute warning, got %+v", res.Warnings)
	}
}

func TestConvert_BulletListNesting(t *testing.T) {
	tree := doc(notetree.Node{Type: "bulletList", Content: []notetree.Node{
		{Type: "listItem", Content: []notetree.Node{paragraph(textNode("one"))}},
		{Type: "listItem", Content: []notetree.Node{
			paragraph(textNode("two")),
			{Type: "bulletList", Content: []notetree.Node{
				{Type: "listItem", Content: []notetree.Node{paragraph(textNode("nested"))}},
			}},
		}},
	}})
	res := Convert(tree)
	want := "- one\n- two\n  - nested\n"
	if res.Markdown != want {
		t.Fatalf("expected %q, got %q", want, res.Markdown)
	}
}

func TestConvert_OrderedList(t *testing.T) {
	tree := doc(notetree.Node{Type: "orderedList", Content: []notetree.Node{
		{Type: "listItem", Content: []notetree.Node{paragraph(textNode("first"))}},
		{Type: "listItem", Content: []notetree.Node{paragraph(textNode("second"))}},
	}})
	res := Convert(tree)
	want := "1. first\n2. second\n"
	if res.Markdown != want {
		t.Fatalf("expected %q, got %q", want, res.Markdown)
	}
}

func TestConvert_HardBreak(t *testing.T) {
	tree := doc(paragraph(textNode("line one"), notetree.Node{Type: "hardBreak"}, textNode("line two")))
	res := Convert(tree)
	want := "line one  \nline two\n"
	if res.Markdown != want {
		t.Fatalf("expected markdown hard break, got %q", res.Markdown)
	}
}

func TestConvert_EscapesSyntaxCharacters(t *testing.T) {
	tree := doc(paragraph(textNode("a *b* _c_ `d` [e]")))
	res := Convert(tree)
	want := "a \\*b\\* \\_c\\_ \\`d\\` \\[e\\]\n"
	if res.Markdown != want {
		t.Fatalf("expected escaped text, got %q", res.Markdown)
	}
}

func TestConvert_Blockquote(t *testing.T) {
	tree := doc(notetree.Node{Type: "blockquote", Content: []notetree.Node{
		paragraph(textNode("quoted")),
		paragraph(textNode("still quoted")),
	}})
	res := Convert(tree)
	want := "> quoted\n>\n> still quoted\n"
	if res.Markdown != want {
		t.Fatalf("expected blockquote, got %q", res.Markdown)
	}
}

func TestConvert_CodeBlockNotEscaped(t *testing.T) {
	tree := doc(notetree.Node{
		Type:    "codeBlock",
		Attrs:   map[string]any{"language": "go"},
		Content: []notetree.Node{textNode("a := b[0] * c")},
	})
	res := Convert(tree)
	want := "```go\na := b[0] * c\n```\n"
	if res.Markdown != want {
		t.Fatalf("expected fenced code block, got %q", res.Markdown)
	}
}

func TestConvert_HorizontalRule(t *testing.T) {
	tree := doc(paragraph(textNode("above")), notetree.Node{Type: "horizontalRule"}, paragraph(textNode("below")))
	res := Convert(tree)
	want := "above\n\n---\n\nbelow\n"
	if res.Markdown != want {
		t.Fatalf("expected rule between paragraphs, got %q", res.Markdown)
	}
}

func TestConvert_UnknownNodeDegrades(t *testing.T) {
	tree := doc(
		notetree.Node{Type: "callout", Content: []notetree.Node{paragraph(textNode("inside a callout"))}},
		notetree.Node{Type: "mysteryWidget"},
	)
	res := Convert(tree)
	if !strings.Contains(res.Markdown, "inside a callout") {
		t.Fatalf("unknown container must render its children, got %q", res.Markdown)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected warnings for both unknown nodes, got %+v", res.Warnings)
	}
	for _, w := range res.Warnings {
		if w.Type != WarningUnknownNode {
			t.Fatalf("expected unknown-node warnings, got %+v", w)
		}
	}
}

func TestConvert_EmptyAndNilTrees(t *testing.T) {
	if res := Convert(nil); res.Markdown != "" {
		t.Fatalf("nil tree must convert to empty string, got %q", res.Markdown)
	}
	if res := Convert(&notetree.Node{Type: "doc"}); res.Markdown != "" {
		t.Fatalf("childless doc must convert to empty string, got %q", res.Markdown)
	}
	if res := Convert(doc(paragraph())); res.Markdown != "" {
		t.Fatalf("blank paragraph must contribute nothing, got %q", res.Markdown)
	}
	blank := notetree.Node{Type: "heading", Attrs: map[string]any{"level": float64(2)}}
	if res := Convert(doc(blank, paragraph(textNode("after")))); res.Markdown != "after\n" {
		t.Fatalf("heading without text must contribute nothing, got %q", res.Markdown)
	}
}

func TestConvert_DeepTreeDoesNotOverflow(t *testing.T) {
	cur := paragraph(textNode("bottom"))
	for i := 0; i < notetree.MaxDepth+50; i++ {
		cur = notetree.Node{Type: "blockquote", Content: []notetree.Node{cur}}
	}
	root := doc(cur)
	res := Convert(root)
	for _, w := range res.Warnings {
		if w.Type == WarningDepthExceeded {
			return
		}
	}
	t.Fatalf("expected a depth-exceeded warning, markdown len=%d", len(res.Markdown))
}

// stripSyntax removes markdown syntax characters so converted output can be
// compared against plain extraction.
func stripSyntax(s string) string {
	r := strings.NewReplacer("\\", "", "#", "", "*", "", "_", "", "`", "", "[", "", "]", "", "-", "", ">", "")
	return strings.Join(strings.Fields(r.Replace(s)), " ")
}

func TestConvert_TextRoundTripsThroughExtractor(t *testing.T) {
	tree := doc(
		notetree.Node{Type: "heading", Attrs: map[string]any{"level": float64(1)}, Content: []notetree.Node{textNode("Meeting notes")}},
		paragraph(textNode("Discussed the rollout plan")),
		paragraph(textNode("Follow up with the platform team")),
	)
	res := Convert(tree)
	got := stripSyntax(extract.Text(res.Markdown))
	want := stripSyntax(extract.Text(tree))
	if got != want {
		t.Fatalf("markdown did not round-trip: got %q want %q", got, want)
	}
}

func TestConvert_OutputParsesAsMarkdown(t *testing.T) {
	tree := doc(
		notetree.Node{Type: "heading", Attrs: map[string]any{"level": float64(2)}, Content: []notetree.Node{textNode("Agenda")}},
		paragraph(textNode("Intro")),
		notetree.Node{Type: "bulletList", Content: []notetree.Node{
			{Type: "listItem", Content: []notetree.Node{paragraph(textNode("point one"))}},
			{Type: "listItem", Content: []notetree.Node{paragraph(textNode("point two"))}},
		}},
	)
	res := Convert(tree)

	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader([]byte(res.Markdown)))

	headings := 0
	lists := 0
	level := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			headings++
			level = v.Level
		case *ast.List:
			lists++
		}
		return ast.WalkContinue, nil
	})
	if headings != 1 || level != 2 {
		t.Fatalf("expected one level-2 heading in parsed output, got %d (level %d)", headings, level)
	}
	if lists != 1 {
		t.Fatalf("expected one list in parsed output, got %d", lists)
	}
}
