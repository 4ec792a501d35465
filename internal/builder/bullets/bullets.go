// Package bullets implements the bullet-list content type.
package bullets

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/plaintext"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// ContentType is the registry key of the bullets builder.
const ContentType = "bullets"

// Limits bound a bullet list.
type Limits struct {
	MaxItems     int
	MaxItemChars int
	MaxDepth     int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxItems: 6, MaxItemChars: 120, MaxDepth: 2}
}

// Item is one bullet. Depth starts at 1 for top-level items.
type Item struct {
	Text  string `json:"text"`
	Depth int    `json:"depth"`
}

// Builder builds bullet-list slides.
type Builder struct {
	*builder.Base
	limits Limits
	items  []Item
}

var _ builder.Builder = (*Builder)(nil)

// New creates a bullets builder.
func New(limits Limits) *Builder {
	b := &Builder{limits: limits}
	b.Base = builder.NewBase(ContentType, builder.Hooks{
		Finalize: b.finalize,
		Validate: b.validate,
		Reset:    func() { b.items = nil },
	})
	return b
}

// NewConstructor returns a registry constructor bound to limits.
func NewConstructor(limits Limits) builder.Constructor {
	return func() builder.Builder { return New(limits) }
}

// SetTitle stores the title with markup stripped.
func (b *Builder) SetTitle(title string) error {
	b.ApplyTitle(plaintext.Clean(title))
	return nil
}

// SetSubtitle stores the subtitle with markup stripped.
func (b *Builder) SetSubtitle(subtitle string) error {
	b.ApplySubtitle(plaintext.Clean(subtitle))
	return nil
}

// SetLayout replaces the layout record.
func (b *Builder) SetLayout(layout map[string]any) error { return b.ApplyLayout(layout) }

// SetStyle replaces the style record.
func (b *Builder) SetStyle(style map[string]any) error { return b.ApplyStyle(style) }

// SetContent accepts a Markdown list, a []string, a []Item, a []any of strings
// or item objects, or an object with an "items" field.
func (b *Builder) SetContent(content any) error {
	items, err := decodeItems(content)
	if err != nil {
		b.Record("SetContent", "", err)
		return err
	}
	b.items = items
	b.Slide().Touch()
	b.Record("SetContent", fmt.Sprintf("%d items", len(items)), nil)
	return nil
}

// AddItem appends a single bullet.
func (b *Builder) AddItem(textValue string, depth int) {
	if depth < 1 {
		depth = 1
	}
	b.items = append(b.items, Item{Text: plaintext.Clean(textValue), Depth: depth})
	b.Slide().Touch()
	b.Record("AddItem", textValue, nil)
}

// Items returns a copy of the accumulated bullets.
func (b *Builder) Items() []Item {
	return append([]Item(nil), b.items...)
}

func (b *Builder) validate(s *slide.Slide) {
	l := b.limits
	if len(b.items) == 0 {
		s.AddValidationError("bullet list needs at least one item")
		return
	}
	if l.MaxItems > 0 && len(b.items) > l.MaxItems {
		s.AddValidationError(fmt.Sprintf("bullet list allows at most %d items, has %d", l.MaxItems, len(b.items)))
	}
	for i, item := range b.items {
		n := i + 1
		if item.Text == "" {
			s.AddValidationError(fmt.Sprintf("item %d is empty", n))
		}
		if c := plaintext.Chars(item.Text); l.MaxItemChars > 0 && c > l.MaxItemChars {
			s.AddValidationError(fmt.Sprintf("item %d has %d characters, limit is %d", n, c, l.MaxItemChars))
		}
		if l.MaxDepth > 0 && item.Depth > l.MaxDepth {
			s.AddValidationError(fmt.Sprintf("item %d is nested %d levels deep, limit is %d", n, item.Depth, l.MaxDepth))
		}
	}
	if b.items[0].Depth > 1 {
		s.AddValidationWarning("bullet list starts with a nested item")
	}
}

func (b *Builder) finalize(s *slide.Slide) {
	if len(b.items) == 0 {
		return
	}
	content, err := slide.CanonicalMap(map[string]any{"items": b.items, "count": len(b.items)})
	if err != nil {
		s.AddValidationError(fmt.Sprintf("bullet content could not be rendered: %v", err))
		return
	}
	s.Content = content
}

func decodeItems(content any) ([]Item, error) {
	switch v := content.(type) {
	case nil:
		return nil, errors.ValidationError("bullet content is required").Build()
	case string:
		return ParseMarkdown([]byte(v))
	case []byte:
		return ParseMarkdown(v)
	case []string:
		items := make([]Item, 0, len(v))
		for _, s := range v {
			items = append(items, Item{Text: plaintext.Clean(s), Depth: 1})
		}
		return items, nil
	case []Item:
		items := make([]Item, 0, len(v))
		for _, it := range v {
			items = append(items, cleanItem(it))
		}
		return items, nil
	case []any:
		return decodeLoose(v)
	case map[string]any:
		raw, ok := v["items"]
		if !ok {
			return nil, errors.ValidationError("bullet content object needs an items field").Build()
		}
		return decodeItems(raw)
	default:
		return nil, errors.ValidationError("unsupported bullet content").
			WithContext("type", fmt.Sprintf("%T", content)).
			Build()
	}
}

func decodeLoose(values []any) ([]Item, error) {
	items := make([]Item, 0, len(values))
	for i, raw := range values {
		switch v := raw.(type) {
		case string:
			items = append(items, Item{Text: plaintext.Clean(v), Depth: 1})
		case map[string]any:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryValidation, "bullet item is not serializable").
					WithContext("index", i).
					Build()
			}
			var it Item
			if err := json.Unmarshal(data, &it); err != nil {
				return nil, errors.WrapError(err, errors.CategoryValidation, "bullet item has an unexpected shape").
					WithContext("index", i).
					Build()
			}
			items = append(items, cleanItem(it))
		default:
			return nil, errors.ValidationError("unsupported bullet item").
				WithContext("index", i).
				WithContext("type", fmt.Sprintf("%T", raw)).
				Build()
		}
	}
	return items, nil
}

func cleanItem(it Item) Item {
	it.Text = plaintext.Clean(it.Text)
	if it.Depth < 1 {
		it.Depth = 1
	}
	return it
}

// ParseMarkdown extracts list items from a Markdown document. Nesting depth is
// the number of enclosing lists. A document without any list is rejected.
func ParseMarkdown(source []byte) ([]Item, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var items []Item
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		li, ok := n.(*gmast.ListItem)
		if !ok {
			return gmast.WalkContinue, nil
		}
		items = append(items, Item{Text: plaintext.Clean(itemText(li, source)), Depth: listDepth(li)})
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to walk markdown").Build()
	}
	if len(items) == 0 {
		return nil, errors.ValidationError("markdown contains no list items").Build()
	}
	return items, nil
}

// itemText collects the inline text of a list item, excluding nested lists.
func itemText(li *gmast.ListItem, source []byte) string {
	var buf bytes.Buffer
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		if _, nested := c.(*gmast.List); nested {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		writeInline(&buf, c, source)
	}
	return buf.String()
}

func writeInline(buf *bytes.Buffer, n gmast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		default:
			writeInline(buf, c, source)
		}
	}
}

func listDepth(n gmast.Node) int {
	depth := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		if _, ok := p.(*gmast.List); ok {
			depth++
		}
	}
	return depth
}
