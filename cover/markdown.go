package cover

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/edocket/bindery/pdf"
)

// Markdown renders Markdown notes into cover pages. Blank input yields no
// pages.
func Markdown(source string, cfg Config) ([]*pdf.Page, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	cfg = cfg.withDefaults()
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	r := newRenderer(cfg)
	walkMarkdown(r, doc, src)
	return r.finish(), nil
}

func walkMarkdown(r *renderer, node ast.Node, src []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			r.heading(markdownText(n, src), n.Level)
		case *ast.Paragraph:
			r.paragraph(markdownText(n, src))
		case *ast.List:
			walkMarkdown(r, n, src)
			r.spacing()
		case *ast.ListItem:
			r.listItem(markdownText(n, src))
		}
	}
}

// markdownText flattens the inline text of a block, turning soft breaks into
// spaces.
func markdownText(node ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
