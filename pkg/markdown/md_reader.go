package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseMarkdown reads the editor dialect into a Document.
//
// Within a paragraph a single newline is a line break. One blank line
// separates paragraphs; two or more blank lines separate them with exactly
// one empty paragraph in between.
func ParseMarkdown(src string) (*Document, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	doc := &Document{}

	var lines []string
	blanks := 0
	flush := func() {
		if len(lines) == 0 {
			return
		}
		if blanks >= 2 && len(doc.Paragraphs) > 0 {
			doc.Paragraphs = append(doc.Paragraphs, &Paragraph{})
		}
		p := newInlineParser(strings.Join(lines, "\n"))
		doc.Paragraphs = append(doc.Paragraphs, &Paragraph{Inlines: trimEdges(p.parseAll())})
		lines = nil
		blanks = 0
	}

	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(lines) > 0 {
				flush()
			}
			blanks++
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return doc, nil
}

type attemptKey struct {
	pos   int
	delim string
}

type attempt struct {
	nodes []*Node
	end   int
	ok    bool
}

type inlineParser struct {
	src  string
	memo map[attemptKey]attempt
}

func newInlineParser(src string) *inlineParser {
	return &inlineParser{src: src, memo: make(map[attemptKey]attempt)}
}

func (p *inlineParser) parseAll() []*Node {
	nodes, _, _ := p.sequence(0, "")
	return nodes
}

// sequence parses inline content from pos until closer is found. With an
// empty closer it runs to the end of input and always succeeds.
func (p *inlineParser) sequence(pos int, closer string) ([]*Node, int, bool) {
	var out []*Node
	var text strings.Builder
	emit := func(n ...*Node) {
		if text.Len() > 0 {
			out = append(out, Text(text.String()))
			text.Reset()
		}
		out = append(out, n...)
	}

	i := pos
	for i < len(p.src) {
		if closer != "" && (len(out) > 0 || text.Len() > 0) && p.closes(i, closer) {
			emit()
			return out, i + len(closer), true
		}
		c := p.src[i]
		switch c {
		case '\n':
			emit(&Node{Kind: KindLineBreak})
			i++
			continue
		case '\\':
			if i+1 < len(p.src) && isEscapable(p.src[i+1]) {
				text.WriteByte(p.src[i+1])
				i += 2
				continue
			}
		case '*', '_', '~':
			if n, end, ok := p.emphasis(i); ok {
				emit(n)
				i = end
				continue
			}
		case '[':
			if n, end, ok := p.link(i); ok {
				emit(n)
				i = end
				continue
			}
		case '!':
			if n, end, ok := p.image(i); ok {
				emit(n)
				i = end
				continue
			}
		case '<':
			if n, end, ok := p.imgTag(i); ok {
				emit(n)
				i = end
				continue
			}
		}
		text.WriteByte(c)
		i++
	}
	if closer != "" {
		return nil, pos, false
	}
	emit()
	return out, i, true
}

func (p *inlineParser) closes(i int, closer string) bool {
	if !strings.HasPrefix(p.src[i:], closer) {
		return false
	}
	if closer != "*" {
		return true
	}
	// A lone asterisk closes italic unless it begins a bold delimiter.
	// "***" still closes: the remaining "**" belongs to an enclosing bold.
	rest := p.src[i+1:]
	return !strings.HasPrefix(rest, "*") || strings.HasPrefix(rest, "**")
}

var emphasisDelims = []struct {
	delim string
	kinds []Kind
}{
	{"***", []Kind{KindBold, KindItalic}},
	{"**", []Kind{KindBold}},
	{"__", []Kind{KindUnderline}},
	{"~~", []Kind{KindStrike}},
	{"*", []Kind{KindItalic}},
}

func (p *inlineParser) emphasis(i int) (*Node, int, bool) {
	for _, d := range emphasisDelims {
		if !strings.HasPrefix(p.src[i:], d.delim) {
			continue
		}
		kids, end, ok := p.delimited(i, d.delim, d.delim)
		if !ok {
			continue
		}
		var n *Node
		for k := len(d.kinds) - 1; k >= 0; k-- {
			n = &Node{Kind: d.kinds[k], Children: kids}
			kids = []*Node{n}
		}
		return n, end, true
	}
	return nil, i, false
}

// delimited parses content between open at i and the matching closer.
// Results are memoized per position and opener so backtracking stays linear.
func (p *inlineParser) delimited(i int, open, closer string) ([]*Node, int, bool) {
	key := attemptKey{pos: i, delim: open}
	if a, seen := p.memo[key]; seen {
		return a.nodes, a.end, a.ok
	}
	nodes, end, ok := p.sequence(i+len(open), closer)
	p.memo[key] = attempt{nodes: nodes, end: end, ok: ok}
	return nodes, end, ok
}

func (p *inlineParser) link(i int) (*Node, int, bool) {
	kids, end, ok := p.delimited(i, "[", "]")
	if !ok {
		return nil, i, false
	}
	href, end, ok := p.target(end)
	if !ok {
		return nil, i, false
	}
	return &Node{Kind: KindLink, Href: href, Children: kids}, end, true
}

func (p *inlineParser) image(i int) (*Node, int, bool) {
	if !strings.HasPrefix(p.src[i:], "![") {
		return nil, i, false
	}
	var alt strings.Builder
	j := i + 2
	for ; j < len(p.src) && p.src[j] != ']'; j++ {
		if p.src[j] == '\n' {
			return nil, i, false
		}
		if p.src[j] == '\\' && j+1 < len(p.src) && isEscapable(p.src[j+1]) {
			j++
		}
		alt.WriteByte(p.src[j])
	}
	if j >= len(p.src) {
		return nil, i, false
	}
	src, end, ok := p.target(j + 1)
	if !ok {
		return nil, i, false
	}
	return Image(src, alt.String()), end, true
}

// target reads "(url)" at i. A backslash escapes the next character, so
// "\)" is part of the url.
func (p *inlineParser) target(i int) (string, int, bool) {
	if i >= len(p.src) || p.src[i] != '(' {
		return "", i, false
	}
	var url strings.Builder
	for j := i + 1; j < len(p.src); j++ {
		c := p.src[j]
		switch {
		case c == ')':
			if url.Len() == 0 {
				return "", i, false
			}
			return url.String(), j + 1, true
		case c == ' ' || c == '\n':
			return "", i, false
		case c == '\\' && j+1 < len(p.src) && isEscapable(p.src[j+1]):
			j++
			url.WriteByte(p.src[j])
		default:
			url.WriteByte(c)
		}
	}
	return "", i, false
}

// imgTag reads a literal <img ...> tag, used for sized images.
func (p *inlineParser) imgTag(i int) (*Node, int, bool) {
	rest := p.src[i:]
	if len(rest) < 5 || !strings.EqualFold(rest[:4], "<img") {
		return nil, i, false
	}
	if c := rest[4]; c != ' ' && c != '/' && c != '>' {
		return nil, i, false
	}
	end := tagEnd(rest)
	if end < 0 {
		return nil, i, false
	}
	z := html.NewTokenizer(strings.NewReader(rest[:end]))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return nil, i, false
	}
	var attrs []html.Attribute
	_, more := z.TagName()
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if len(key) > 0 {
			attrs = append(attrs, html.Attribute{Key: string(key), Val: string(val)})
		}
	}
	return imageNode(attrs), i + end, true
}

// tagEnd returns the index just past the '>' closing the tag at s[0],
// skipping quoted attribute values.
func tagEnd(s string) int {
	var quote byte
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n' && quote == 0:
			return -1
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i + 1
		}
	}
	return -1
}

func isEscapable(c byte) bool {
	return strings.IndexByte(`\*_~[]<>()!`, c) >= 0
}
