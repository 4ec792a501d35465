package strategy

// Standard puts the title on top and the content below it.
type Standard struct{}

func (Standard) Name() string     { return "standard" }
func (Standard) Describe() string { return "Title on top, full-width content" }

func (Standard) ApplyLayout(ctx Context, layout map[string]any) {
	fill(ctx, layout, map[string]any{
		"template":       "standard",
		"title_position": "top",
		"content_area":   "full",
		"padding":        48,
	})
}

// Split divides the slide into two columns.
type Split struct{}

func (Split) Name() string     { return "split" }
func (Split) Describe() string { return "Two columns, title left" }

func (Split) ApplyLayout(ctx Context, layout map[string]any) {
	fill(ctx, layout, map[string]any{
		"template":       "split",
		"title_position": "left",
		"columns":        2,
		"ratio":          "1:1",
	})
}

// Chat renders turns as alternating message bubbles.
type Chat struct{}

func (Chat) Name() string     { return "chat" }
func (Chat) Describe() string { return "Message bubbles with avatars" }

func (Chat) ApplyLayout(ctx Context, layout map[string]any) {
	fill(ctx, layout, map[string]any{
		"template":          "chat",
		"title_position":    "top",
		"bubble_alignment":  "alternate",
		"avatar_position":   "outside",
		"max_visible_turns": 6,
	})
}
