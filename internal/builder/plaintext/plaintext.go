// Package plaintext cleans generated text before builders measure or store it.
package plaintext

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var policy = bluemonday.StrictPolicy()

// Clean strips markup, decodes entities, trims and normalizes to NFC so that
// character counts are stable across equivalent encodings. Only real HTML
// elements are treated as markup: angle brackets in prose such as Map<K, V>
// or a < b are kept.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(html.UnescapeString(policy.Sanitize(escapeStrayBrackets(s)))))
}

// Normalize applies NFC without stripping markup. Used for code, where angle
// brackets are content.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// Chars returns the number of user-perceived characters (runes after NFC).
func Chars(s string) int {
	return utf8.RuneCountInString(s)
}

// escapeStrayBrackets entity-encodes every '<' that does not open an HTML
// element, comment or doctype, so the sanitizer keeps it as text.
func escapeStrayBrackets(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !opensMarkup(s[i+1:]) {
			sb.WriteString("&lt;")
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// opensMarkup reports whether rest (the text after a '<') starts a known
// element tag that is closed by a later '>'.
func opensMarkup(rest string) bool {
	if !strings.Contains(rest, ">") {
		return false
	}
	if strings.HasPrefix(rest, "!") {
		return true
	}
	rest = strings.TrimPrefix(rest, "/")
	n := 0
	for n < len(rest) && isAlnum(rest[n]) {
		n++
	}
	if n == 0 {
		return false
	}
	if n < len(rest) && !strings.ContainsRune(" \t\r\n/>", rune(rest[n])) {
		return false
	}
	_, ok := htmlElements[strings.ToLower(rest[:n])]
	return ok
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

var htmlElements = func() map[string]struct{} {
	names := strings.Fields(`
		a abbr address area article aside audio b base bdi bdo blockquote body br
		button canvas caption cite code col colgroup data datalist dd del details
		dfn dialog div dl dt em embed fieldset figcaption figure font footer form
		frame frameset h1 h2 h3 h4 h5 h6 head header hr html i iframe img input
		ins kbd label legend li link main map mark math meta meter nav noembed
		noframes noscript object ol optgroup option output p param picture pre
		progress q rp rt ruby s samp script section select slot small source span
		strike strong style sub summary sup svg table tbody td template textarea
		tfoot th thead time title tr track u ul var video wbr`)
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}()
