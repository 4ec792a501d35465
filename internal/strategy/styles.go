package strategy

// Minimal is the default style: light background, no decoration.
type Minimal struct{}

func (Minimal) Name() string     { return "minimal" }
func (Minimal) Describe() string { return "Light background, system font, no decoration" }

func (Minimal) ApplyStyle(ctx Context, style map[string]any) {
	fill(ctx, style, map[string]any{
		"theme":            "light",
		"font_family":      "system-ui",
		"background_color": "#ffffff",
		"text_color":       "#1f2328",
		"accent_color":     "#0969da",
	})
}

// Corporate is a branded style that title-cases headings.
type Corporate struct{}

func (Corporate) Name() string     { return "corporate" }
func (Corporate) Describe() string { return "Brand colors, serif headings, title-cased titles" }

func (Corporate) ApplyStyle(ctx Context, style map[string]any) {
	fill(ctx, style, map[string]any{
		"theme":            "light",
		"font_family":      "Georgia, serif",
		"background_color": "#f6f8fa",
		"text_color":       "#24292f",
		"accent_color":     "#8250df",
		"show_logo":        true,
	})
}

func (Corporate) FormatTitle(title string) string { return TitleCase(title) }

// Dark is a high-contrast dark style. Conversations get monospace bubbles.
type Dark struct{}

func (Dark) Name() string     { return "dark" }
func (Dark) Describe() string { return "Dark background, high contrast" }

func (Dark) ApplyStyle(ctx Context, style map[string]any) {
	defaults := map[string]any{
		"theme":            "dark",
		"font_family":      "system-ui",
		"background_color": "#0d1117",
		"text_color":       "#e6edf3",
		"accent_color":     "#2f81f7",
	}
	if ctx.ContentType == "conversation" {
		defaults["bubble_font_family"] = "ui-monospace"
	}
	fill(ctx, style, defaults)
}
