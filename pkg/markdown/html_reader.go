package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// styleWidthRe matches an explicit pixel width declaration, not max-width.
var styleWidthRe = regexp.MustCompile(`(?i)(?:^|;)\s*width\s*:\s*(\d+)px`)

// ParseHTML reads editor HTML into a Document.
func ParseHTML(src string) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	r := &htmlReader{doc: &Document{}}
	for _, n := range nodes {
		r.block(n)
	}
	r.flush()
	return r.doc, nil
}

type htmlReader struct {
	doc *Document
	// loose collects inline content that is not wrapped in a block element.
	loose []*Node
}

func (r *htmlReader) block(n *html.Node) {
	switch {
	case n.Type == html.ElementNode && isBlock(n.DataAtom):
		r.flush()
		if hasBlockChild(n) {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				r.block(c)
			}
			r.flush()
			return
		}
		r.addParagraph(r.children(n))
	case n.Type == html.ElementNode || n.Type == html.TextNode:
		r.loose = append(r.loose, r.inline(n)...)
	}
}

func (r *htmlReader) flush() {
	if len(r.loose) == 0 {
		return
	}
	inlines := r.loose
	r.loose = nil
	if blank(inlines) {
		return
	}
	r.addParagraph(inlines)
}

func (r *htmlReader) addParagraph(inlines []*Node) {
	p := &Paragraph{Inlines: trimEdges(inlines)}
	if p.Empty() {
		p.Inlines = nil
	}
	r.doc.Paragraphs = append(r.doc.Paragraphs, p)
}

func (r *htmlReader) children(n *html.Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, r.inline(c)...)
	}
	return out
}

func (r *htmlReader) inline(n *html.Node) []*Node {
	switch n.Type {
	case html.TextNode:
		text := collapseSpace(n.Data)
		if text == "" {
			return nil
		}
		return []*Node{Text(text)}
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		return wrap(KindBold, r.children(n))
	case atom.Em, atom.I:
		return wrap(KindItalic, r.children(n))
	case atom.U:
		return wrap(KindUnderline, r.children(n))
	case atom.S, atom.Del, atom.Strike:
		return wrap(KindStrike, r.children(n))
	case atom.A:
		kids := r.children(n)
		if len(kids) == 0 {
			return nil
		}
		return []*Node{{Kind: KindLink, Href: attr(n.Attr, "href"), Children: kids}}
	case atom.Img:
		return []*Node{imageNode(n.Attr)}
	case atom.Br:
		return []*Node{{Kind: KindLineBreak}}
	case atom.Script, atom.Style, atom.Template:
		return nil
	}
	return r.children(n)
}

func wrap(kind Kind, kids []*Node) []*Node {
	if len(kids) == 0 {
		return nil
	}
	return []*Node{{Kind: kind, Children: kids}}
}

func imageNode(attrs []html.Attribute) *Node {
	img := &Node{Kind: KindImage}
	var widthAttr string
	for _, a := range attrs {
		switch strings.ToLower(a.Key) {
		case "src":
			img.Src = a.Val
		case "alt":
			img.Alt = a.Val
		case "style":
			img.Style = strings.TrimSpace(a.Val)
		case "width":
			widthAttr = a.Val
		}
	}
	img.Width = StyleWidth(img.Style)
	if img.Width == 0 {
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(widthAttr), "px")); err == nil && n > 0 {
			img.Width = n
		}
	}
	return img
}

// StyleWidth returns the pixel width declared in an inline style, or 0.
func StyleWidth(style string) int {
	m := styleWidthRe.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func attr(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre, atom.Section, atom.Article:
		return true
	}
	return false
}

func hasBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isBlock(c.DataAtom) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}
