package markdown

import (
	"fmt"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/microcosm-cc/bluemonday"
)

// Converter translates between editor HTML and the markdown dialect.
// Conversions never fail: on any error the result is "" and the cause is logged.
type Converter struct {
	log    *logger.Logger
	policy *bluemonday.Policy
}

func NewConverter(log *logger.Logger) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	return &Converter{log: log, policy: displayPolicy()}
}

func displayPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowStyles("width", "height", "max-width", "display", "margin", "border-radius").OnElements("img")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// ToMarkdown converts editor HTML to markdown.
func (c *Converter) ToMarkdown(src string) (out string) {
	if src == "" {
		return ""
	}
	defer c.rescue("html to markdown", &out)
	doc, err := ParseHTML(src)
	if err != nil {
		c.log.Err(err, "html to markdown failed")
		return ""
	}
	return doc.Markdown()
}

// ToHTML converts markdown to editor HTML.
func (c *Converter) ToHTML(src string) (out string) {
	if src == "" {
		return ""
	}
	defer c.rescue("markdown to html", &out)
	doc, err := ParseMarkdown(src)
	if err != nil {
		c.log.Err(err, "markdown to html failed")
		return ""
	}
	return doc.HTML()
}

// Render produces sanitized HTML for read-only display. Scripts, event
// handlers and unsafe URLs are stripped; absolute links open in a new tab.
func (c *Converter) Render(src string) string {
	out := c.ToHTML(src)
	if out == "" {
		return ""
	}
	return c.policy.Sanitize(out)
}

func (c *Converter) rescue(op string, out *string) {
	if r := recover(); r != nil {
		c.log.With("op", op).Error(fmt.Sprintf("conversion panicked: %v", r))
		*out = ""
	}
}

// ImageSources lists the src of every image in a markdown document, in
// document order. Malformed input yields nil.
func (c *Converter) ImageSources(src string) (out []string) {
	if src == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.With("op", "image sources").Error(fmt.Sprintf("conversion panicked: %v", r))
			out = nil
		}
	}()
	doc, err := ParseMarkdown(src)
	if err != nil {
		c.log.Err(err, "image scan failed")
		return nil
	}
	for _, img := range doc.Images() {
		out = append(out, img.Src)
	}
	return out
}
