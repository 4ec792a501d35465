// Package strategy provides the interchangeable presentation rules applied to
// a slide's style and layout records, independently of its content type.
package strategy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context is the minimal surface a strategy needs from the caller.
type Context struct {
	ContentType string
	TenantID    string
	// Preferences are tenant-declared values that win over strategy defaults
	// but never over values the caller set explicitly.
	Preferences map[string]any
}

// StyleStrategy fills a slide's style record.
type StyleStrategy interface {
	Name() string
	Describe() string
	// ApplyStyle adds the strategy's defaults to style. Keys already present
	// are left untouched.
	ApplyStyle(ctx Context, style map[string]any)
}

// LayoutStrategy fills a slide's layout record.
type LayoutStrategy interface {
	Name() string
	Describe() string
	// ApplyLayout adds the strategy's defaults to layout. Keys already present
	// are left untouched.
	ApplyLayout(ctx Context, layout map[string]any)
}

// TitleFormatter is implemented by styles that rewrite slide titles.
type TitleFormatter interface {
	FormatTitle(title string) string
}

// fill sets every unset key of dst, preferring ctx.Preferences over defaults.
func fill(ctx Context, dst, defaults map[string]any) {
	for k, v := range ctx.Preferences {
		if dst[k] == nil {
			dst[k] = v
		}
	}
	for k, v := range defaults {
		if dst[k] == nil {
			dst[k] = v
		}
	}
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	// A Caser is stateful; build one per call.
	return cases.Title(language.English).String(s)
}
