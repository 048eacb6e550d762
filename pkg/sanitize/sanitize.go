// Package sanitize cleans third-party text before it is stored or echoed
// back to clients. Roster records are populated by external staff and may
// carry markup, control characters, or stray whitespace.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	controls   = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
	spaces     = regexp.MustCompile(`\s+`)
	nameAllow  = regexp.MustCompile(`[^a-zA-Z \-'.]`)
	placeAllow = regexp.MustCompile(`[^a-zA-Z0-9 \-,.]`)
)

// text strips markup and control characters and collapses whitespace.
func text(in string) string {
	out := strings.TrimSpace(in)
	out = htmlTags.ReplaceAllString(out, "")
	out = controls.ReplaceAllString(out, "")
	out = spaces.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Name restricts a display name to letters, spaces, hyphens, apostrophes,
// and periods. Returns "" when nothing usable remains.
func Name(in string) string {
	out := nameAllow.ReplaceAllString(text(in), "")
	return strings.TrimSpace(spaces.ReplaceAllString(out, " "))
}

// Place restricts a free-form location to letters, digits, and light
// punctuation.
func Place(in string) string {
	out := placeAllow.ReplaceAllString(text(in), "")
	return strings.TrimSpace(spaces.ReplaceAllString(out, " "))
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeHTML escapes characters significant in HTML contexts. Applied to
// profile fields on the way out of the API.
func EscapeHTML(in string) string {
	return htmlEscaper.Replace(in)
}
