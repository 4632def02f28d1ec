package domain

import (
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// htmlMarker matches the fragments the host uses to decide a text is HTML.
var htmlMarker = regexp.MustCompile(`(?i)<html|<body|</textarea|<(b|em|i|u)(\s+[^>]+)?>|<br|` +
	`<(div|font|li|p|span|strong|table)(\s+[^<>/]*)?/?>|<img\s+[^<>]*src[^<>]*>|` +
	`<a\s+[^<>]*href[^<>]*>|<h[0-9]>|&[a-z0-9]{1,6};|&#[0-9]{2,3};`)

var descriptionPolicy = bluemonday.UGCPolicy()

// IsHTML reports whether text contains HTML markup.
func IsHTML(text string) bool {
	return htmlMarker.MatchString(text)
}

// ConcatDesc joins two description fragments. The separator is an HTML line
// break when either side is HTML and a newline otherwise; an empty side adds
// no separator.
func ConcatDesc(a, b string) string {
	if a == "" || b == "" {
		return a + b
	}
	if IsHTML(a) || IsHTML(b) {
		return a + "<br>\n" + b
	}
	return a + "\n" + b
}

// KitDescription builds the description of a kit line: for each component in
// order, its label in bold followed by its description. Labels are escaped.
// HTML descriptions are sanitized; plain text is copied unchanged.
func KitDescription(components []Product) string {
	var out string
	for _, p := range components {
		label := "<b>" + html.EscapeString(p.Label) + "</b>"
		out = ConcatDesc(out, ConcatDesc(label, componentDescription(p.Description)))
	}
	return out
}

func componentDescription(desc string) string {
	if !IsHTML(desc) {
		return desc
	}
	return descriptionPolicy.Sanitize(desc)
}
