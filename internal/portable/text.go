package portable

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag and the contents of script and style,
// leaving a space where a tag was so adjacent paragraphs do not run together.
var stripPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}()

// PlainText strips markup and entities from s and collapses whitespace.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// Excerpt returns the plain text of markup, cut to max characters with "..."
// appended when it had to be cut.
func Excerpt(markup string, max int) string {
	text := PlainText(markup)
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	r := []rune(text)
	return string(r[:max]) + "..."
}
