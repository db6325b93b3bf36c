package cover

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/edocket/bindery/pdf"
)

// HTML renders HTML notes into cover pages. Only h1-h6, p, and li carry
// meaning; everything else is traversed for its text. Blank input yields no
// pages.
func HTML(source string, cfg Config) ([]*pdf.Page, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	cfg = cfg.withDefaults()
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	r := newRenderer(cfg)
	walkHTML(r, doc)
	return r.finish(), nil
}

func walkHTML(r *renderer, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			r.heading(htmlText(n), headingLevel(n.DataAtom))
			return
		case atom.P:
			r.paragraph(htmlText(n))
			return
		case atom.Li:
			r.listItem(htmlText(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(r, c)
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	}
	return 4
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
