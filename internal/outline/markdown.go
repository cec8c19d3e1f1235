package outline

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// checkboxPattern matches a task-list checkbox left in item text ("[ ] ", "[x] ").
var checkboxPattern = regexp.MustCompile(`^\[[ xX]\]\s+`)

// ParseMarkdown builds a forest from a Markdown document.
//
// Headings open sections: a heading nests under the closest shallower heading
// before it. Lists nest by their own structure and attach to the current
// section, as do plain paragraphs. Code blocks, HTML and rules are ignored.
func ParseMarkdown(src []byte) []*Node {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	b := &markdownBuilder{src: src, roots: make([]*Node, 0)}

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			b.heading(n)
		case *ast.List:
			for _, item := range b.listItems(n, b.depth()) {
				b.attach(item)
			}
		case *ast.Paragraph, *ast.TextBlock, *ast.Blockquote:
			if content := inlineText(n, src); content != "" {
				b.attach(&Node{Text: content, Level: b.depth(), Children: []*Node{}})
			}
		}
	}

	return b.roots
}

type markdownBuilder struct {
	src      []byte
	roots    []*Node
	sections []*Node
	levels   []int
}

func (b *markdownBuilder) depth() int {
	return len(b.sections)
}

func (b *markdownBuilder) attach(node *Node) {
	if len(b.sections) == 0 {
		b.roots = append(b.roots, node)
		return
	}
	parent := b.sections[len(b.sections)-1]
	parent.Children = append(parent.Children, node)
}

func (b *markdownBuilder) heading(h *ast.Heading) {
	content := inlineText(h, b.src)
	if content == "" {
		return
	}
	for len(b.levels) > 0 && b.levels[len(b.levels)-1] >= h.Level {
		b.levels = b.levels[:len(b.levels)-1]
		b.sections = b.sections[:len(b.sections)-1]
	}
	node := &Node{Text: content, Level: b.depth(), Children: []*Node{}}
	b.attach(node)
	b.sections = append(b.sections, node)
	b.levels = append(b.levels, h.Level)
}

// listItems converts a list into nodes at the given depth. Items without text
// hand their nested items up to the enclosing level.
func (b *markdownBuilder) listItems(list *ast.List, depth int) []*Node {
	var out []*Node
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var children []*Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				children = append(children, b.listItems(nested, depth+1)...)
				continue
			}
			if content := inlineText(c, b.src); content != "" {
				parts = append(parts, content)
			}
		}

		content := checkboxPattern.ReplaceAllString(strings.Join(parts, " "), "")
		if content == "" {
			out = append(out, children...)
			continue
		}
		if children == nil {
			children = []*Node{}
		}
		out = append(out, &Node{Text: content, Level: depth, Children: children})
	}
	return out
}

// inlineText flattens the inline content of a block to single-spaced text.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(parent ast.Node) {
		for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				sb.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					sb.WriteByte(' ')
				}
			case *ast.String:
				sb.Write(v.Value)
			case *ast.AutoLink:
				sb.Write(v.Label(src))
			case *ast.List:
				// nested lists are handled by the caller
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
