package markdown

import "strings"

// Kind identifies an inline node.
type Kind int

const (
	KindText Kind = iota
	KindBold
	KindItalic
	KindUnderline
	KindStrike
	KindLink
	KindImage
	KindLineBreak
)

// Node is an inline element of the dialect. Only the fields relevant to
// its Kind are set.
type Node struct {
	Kind     Kind
	Text     string
	Href     string
	Src      string
	Alt      string
	Style    string
	Width    int
	Children []*Node
}

// Paragraph is a block of inline content. A paragraph without visible
// content is a user-created blank line.
type Paragraph struct {
	Inlines []*Node
}

// Empty reports whether the paragraph has nothing but whitespace and line breaks.
func (p *Paragraph) Empty() bool {
	return blank(p.Inlines)
}

func blank(nodes []*Node) bool {
	for _, n := range nodes {
		switch n.Kind {
		case KindLineBreak:
		case KindText:
			if strings.TrimSpace(n.Text) != "" {
				return false
			}
		case KindImage:
			return false
		default:
			if !blank(n.Children) {
				return false
			}
		}
	}
	return true
}

// Document is the intermediate form shared by the HTML and markdown sides.
type Document struct {
	Paragraphs []*Paragraph
}

// Images returns every image node in document order.
func (d *Document) Images() []*Node {
	var out []*Node
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Kind == KindImage {
				out = append(out, n)
			}
			walk(n.Children)
		}
	}
	for _, p := range d.Paragraphs {
		walk(p.Inlines)
	}
	return out
}

// FindImage returns the first image whose src equals src.
func (d *Document) FindImage(src string) *Node {
	for _, img := range d.Images() {
		if img.Src == src {
			return img
		}
	}
	return nil
}

// AppendParagraph adds a paragraph holding the given inlines.
func (d *Document) AppendParagraph(inlines ...*Node) {
	d.Paragraphs = append(d.Paragraphs, &Paragraph{Inlines: inlines})
}

// Text returns a text node.
func Text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// Image returns an unsized image node.
func Image(src, alt string) *Node {
	return &Node{Kind: KindImage, Src: src, Alt: alt}
}

// normalize merges adjacent text and emphasis siblings and drops empty
// wrappers, so both writers see one canonical shape.
func normalize(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != KindText && n.Kind != KindImage && n.Kind != KindLineBreak {
			n.Children = normalize(n.Children)
			if len(n.Children) == 0 {
				continue
			}
		}
		if n.Kind == KindText && n.Text == "" {
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			switch {
			case prev.Kind == KindText && n.Kind == KindText:
				prev.Text += n.Text
				continue
			case prev.Kind == n.Kind && mergeable(n.Kind):
				prev.Children = normalize(append(prev.Children, n.Children...))
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func mergeable(k Kind) bool {
	switch k {
	case KindBold, KindItalic, KindUnderline, KindStrike:
		return true
	}
	return false
}

// trimEdges strips whitespace at the paragraph edges and around line breaks.
func trimEdges(nodes []*Node) []*Node {
	nodes = normalize(nodes)
	for i, n := range nodes {
		if n.Kind != KindLineBreak {
			continue
		}
		if i > 0 {
			trimRight(nodes[i-1])
		}
		if i+1 < len(nodes) {
			trimLeft(nodes[i+1])
		}
	}
	if len(nodes) > 0 {
		trimLeft(nodes[0])
		trimRight(nodes[len(nodes)-1])
	}
	return normalize(nodes)
}

func trimLeft(n *Node) {
	switch n.Kind {
	case KindText:
		n.Text = strings.TrimLeft(n.Text, " \t")
	case KindImage, KindLineBreak:
	default:
		if len(n.Children) > 0 {
			trimLeft(n.Children[0])
		}
	}
}

func trimRight(n *Node) {
	switch n.Kind {
	case KindText:
		n.Text = strings.TrimRight(n.Text, " \t")
	case KindImage, KindLineBreak:
	default:
		if len(n.Children) > 0 {
			trimRight(n.Children[len(n.Children)-1])
		}
	}
}
