package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// DefaultImageStyle is applied to unsized images when writing HTML.
const DefaultImageStyle = "max-width: 100%; height: auto; display: block; margin: 10px 0; border-radius: 8px;"

var extraNewlines = regexp.MustCompile(`\n{3,}`)

// Markdown serializes the document to the editor dialect.
func (d *Document) Markdown() string {
	var b strings.Builder
	for _, p := range d.Paragraphs {
		if !p.Empty() {
			writeMarkdown(&b, normalize(p.Inlines))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(extraNewlines.ReplaceAllString(b.String(), "\n\n"))
}

func writeMarkdown(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(escapeMarkdown(n.Text))
		case KindLineBreak:
			b.WriteByte('\n')
		case KindBold, KindItalic:
			if inner := boldItalicChildren(n); inner != nil {
				b.WriteString("***")
				writeMarkdown(b, inner)
				b.WriteString("***")
				continue
			}
			delim := "*"
			if n.Kind == KindBold {
				delim = "**"
			}
			b.WriteString(delim)
			writeMarkdown(b, n.Children)
			b.WriteString(delim)
		case KindUnderline:
			b.WriteString("__")
			writeMarkdown(b, n.Children)
			b.WriteString("__")
		case KindStrike:
			b.WriteString("~~")
			writeMarkdown(b, n.Children)
			b.WriteString("~~")
		case KindLink:
			b.WriteByte('[')
			writeMarkdown(b, n.Children)
			b.WriteString("](")
			b.WriteString(escapeTarget(n.Href))
			b.WriteByte(')')
		case KindImage:
			writeMarkdownImage(b, n)
		}
	}
}

// boldItalicChildren returns the content of a bold node wrapping only an
// italic one (or the reverse), which the dialect writes as ***x***.
func boldItalicChildren(n *Node) []*Node {
	if len(n.Children) != 1 {
		return nil
	}
	c := n.Children[0]
	if (n.Kind == KindBold && c.Kind == KindItalic) || (n.Kind == KindItalic && c.Kind == KindBold) {
		return c.Children
	}
	return nil
}

func writeMarkdownImage(b *strings.Builder, n *Node) {
	if n.Width <= 0 {
		fmt.Fprintf(b, "![%s](%s)", escapeAlt(n.Alt), escapeTarget(n.Src))
		return
	}
	fmt.Fprintf(b, `<img src="%s" alt="%s" width="%d"`, html.EscapeString(n.Src), html.EscapeString(n.Alt), n.Width)
	if n.Style != "" {
		fmt.Fprintf(b, ` style="%s"`, html.EscapeString(n.Style))
	}
	b.WriteString(" />")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func escapeAlt(s string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`, "\n", " ").Replace(s)
}

func escapeTarget(s string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`, " ", "%20", "\n", "").Replace(s)
}

// HTML serializes the document to the editor's HTML model.
func (d *Document) HTML() string {
	var b strings.Builder
	for _, p := range d.Paragraphs {
		if p.Empty() {
			b.WriteString("<p><br /></p>")
			continue
		}
		b.WriteString("<p>")
		writeHTML(&b, normalize(p.Inlines))
		b.WriteString("</p>")
	}
	return b.String()
}

var htmlTags = map[Kind]string{
	KindBold:      "strong",
	KindItalic:    "em",
	KindUnderline: "u",
	KindStrike:    "s",
}

func writeHTML(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			b.WriteString(html.EscapeString(n.Text))
		case KindLineBreak:
			b.WriteString("<br />")
		case KindLink:
			fmt.Fprintf(b, `<a href="%s">`, html.EscapeString(n.Href))
			writeHTML(b, n.Children)
			b.WriteString("</a>")
		case KindImage:
			writeHTMLImage(b, n)
		default:
			tag := htmlTags[n.Kind]
			fmt.Fprintf(b, "<%s>", tag)
			writeHTML(b, n.Children)
			fmt.Fprintf(b, "</%s>", tag)
		}
	}
}

func writeHTMLImage(b *strings.Builder, n *Node) {
	style := n.Style
	switch {
	case n.Width > 0 && style == "":
		style = fmt.Sprintf("width: %dpx; height: auto; max-width: 100%%;", n.Width)
	case n.Width > 0 && StyleWidth(style) != n.Width:
		style = fmt.Sprintf("width: %dpx; %s", n.Width, style)
	case n.Width <= 0 && style == "":
		style = DefaultImageStyle
	}
	fmt.Fprintf(b, `<img src="%s" alt="%s" style="%s" />`,
		html.EscapeString(n.Src), html.EscapeString(n.Alt), html.EscapeString(style))
}
