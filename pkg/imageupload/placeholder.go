package imageupload

import (
	"regexp"
	"sort"
	"strings"
)

// Form tells how a placeholder is written in the document.
type Form int

const (
	FormMarkdown Form = iota
	FormHTML
)

// Placeholder is a reference to a staged image that has not been uploaded.
type Placeholder struct {
	UUID    string
	BlobURL string
	Form    Form
	// Offset is the byte position of the first occurrence.
	Offset int
}

var (
	markdownPlaceholder = regexp.MustCompile(`!\[temp:([a-f0-9-]+)\]\((blob:[^)]+)\)`)
	htmlAltBeforeSrc    = regexp.MustCompile(`(?i)<img[^>]*alt=["']temp:([a-f0-9-]+)["'][^>]*src=["'](blob:[^"']+)["'][^>]*>`)
	htmlSrcBeforeAlt    = regexp.MustCompile(`(?i)<img[^>]*src=["'](blob:[^"']+)["'][^>]*alt=["']temp:([a-f0-9-]+)["'][^>]*>`)

	imgTag = regexp.MustCompile(`(?i)<img[^>]*>`)
)

// FindPlaceholders returns every distinct placeholder in text, in order of
// first appearance. The markdown form and both HTML attribute orders are
// recognised; a uuid referenced more than once is reported once.
func FindPlaceholders(text string) []Placeholder {
	seen := make(map[string]int)
	var out []Placeholder
	add := func(p Placeholder) {
		if i, ok := seen[p.UUID]; ok {
			if p.Offset < out[i].Offset {
				out[i] = p
			}
			return
		}
		seen[p.UUID] = len(out)
		out = append(out, p)
	}

	for _, m := range markdownPlaceholder.FindAllStringSubmatchIndex(text, -1) {
		add(Placeholder{UUID: text[m[2]:m[3]], BlobURL: text[m[4]:m[5]], Form: FormMarkdown, Offset: m[0]})
	}
	for _, m := range htmlAltBeforeSrc.FindAllStringSubmatchIndex(text, -1) {
		add(Placeholder{UUID: text[m[2]:m[3]], BlobURL: text[m[4]:m[5]], Form: FormHTML, Offset: m[0]})
	}
	for _, m := range htmlSrcBeforeAlt.FindAllStringSubmatchIndex(text, -1) {
		add(Placeholder{UUID: text[m[4]:m[5]], BlobURL: text[m[2]:m[3]], Form: FormHTML, Offset: m[0]})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// HasTemporaryImages reports whether text holds at least one placeholder.
func HasTemporaryImages(text string) bool {
	return markdownPlaceholder.MatchString(text) ||
		htmlAltBeforeSrc.MatchString(text) ||
		htmlSrcBeforeAlt.MatchString(text)
}

// CountTemporaryImages returns the number of distinct placeholder uuids.
func CountTemporaryImages(text string) int {
	return len(FindPlaceholders(text))
}

// rewrite replaces every occurrence of the placeholder for uuid with a
// reference to url. HTML tags keep all their other attributes.
func rewrite(text, uuid, alt, url string) string {
	quoted := regexp.QuoteMeta(uuid)
	md := regexp.MustCompile(`!\[temp:` + quoted + `\]\(blob:[^)]+\)`)
	text = md.ReplaceAllLiteralString(text, "!["+markdownAlt(alt)+"]("+url+")")

	altAttr := regexp.MustCompile(`(?i)\balt=["']temp:` + quoted + `["']`)
	srcAttr := regexp.MustCompile(`(?i)\bsrc=["']blob:[^"']+["']`)
	return imgTag.ReplaceAllStringFunc(text, func(tag string) string {
		if !altAttr.MatchString(tag) || !srcAttr.MatchString(tag) {
			return tag
		}
		tag = altAttr.ReplaceAllLiteralString(tag, `alt="`+attrValue(alt)+`"`)
		return srcAttr.ReplaceAllLiteralString(tag, `src="`+attrValue(url)+`"`)
	})
}

func markdownAlt(s string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`, "\n", " ").Replace(s)
}

func attrValue(s string) string {
	return strings.NewReplacer(`&`, "&amp;", `"`, "&#34;", `<`, "&lt;", `>`, "&gt;").Replace(s)
}
