// Package codeblock implements the single code excerpt content type.
package codeblock

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/plaintext"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// ContentType is the registry key of the codeblock builder.
const ContentType = "codeblock"

// Limits bound a code excerpt.
type Limits struct {
	MaxLines int
	// AllowedLanguages restricts the excerpt language; empty allows any.
	AllowedLanguages []string
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxLines: 25}
}

// Excerpt is the code shown on the slide.
type Excerpt struct {
	Language  string `json:"language"`
	Source    string `json:"source"`
	Caption   string `json:"caption,omitempty"`
	Highlight []int  `json:"highlight,omitempty"`
}

// Lines returns the number of source lines.
func (e Excerpt) Lines() int {
	src := strings.TrimRight(e.Source, "\n")
	if src == "" {
		return 0
	}
	return strings.Count(src, "\n") + 1
}

// Builder builds code excerpt slides.
type Builder struct {
	*builder.Base
	limits  Limits
	excerpt *Excerpt
}

var _ builder.Builder = (*Builder)(nil)

// New creates a codeblock builder.
func New(limits Limits) *Builder {
	b := &Builder{limits: limits}
	b.Base = builder.NewBase(ContentType, builder.Hooks{
		Finalize: b.finalize,
		Validate: b.validate,
		Reset:    func() { b.excerpt = nil },
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

// SetContent accepts an Excerpt, an object with language/source fields, or a
// string. A string containing a fenced code block contributes that block;
// any other string is taken as raw source.
func (b *Builder) SetContent(content any) error {
	ex, err := decodeExcerpt(content)
	if err != nil {
		b.Record("SetContent", "", err)
		return err
	}
	ex.Language = strings.ToLower(strings.TrimSpace(ex.Language))
	ex.Source = plaintext.Normalize(ex.Source)
	ex.Caption = plaintext.Clean(ex.Caption)
	b.excerpt = &ex
	b.Slide().Touch()
	b.Record("SetContent", fmt.Sprintf("%s, %d lines", ex.Language, ex.Lines()), nil)
	return nil
}

// Excerpt returns the accumulated excerpt, if any.
func (b *Builder) Excerpt() (Excerpt, bool) {
	if b.excerpt == nil {
		return Excerpt{}, false
	}
	return *b.excerpt, true
}

func (b *Builder) validate(s *slide.Slide) {
	ex := b.excerpt
	if ex == nil || strings.TrimSpace(ex.Source) == "" {
		s.AddValidationError("code excerpt has no source")
		return
	}
	if n := ex.Lines(); b.limits.MaxLines > 0 && n > b.limits.MaxLines {
		s.AddValidationError(fmt.Sprintf("code excerpt has %d lines, limit is %d", n, b.limits.MaxLines))
	}
	if ex.Language == "" {
		s.AddValidationWarning("code excerpt has no language; highlighting is disabled")
	} else if len(b.limits.AllowedLanguages) > 0 && !slices.Contains(b.limits.AllowedLanguages, ex.Language) {
		s.AddValidationError(fmt.Sprintf("language %q is not allowed", ex.Language))
	}
	for _, line := range ex.Highlight {
		if line < 1 || line > ex.Lines() {
			s.AddValidationError(fmt.Sprintf("highlighted line %d is outside the excerpt", line))
		}
	}
}

func (b *Builder) finalize(s *slide.Slide) {
	if b.excerpt == nil {
		return
	}
	content, err := slide.CanonicalMap(struct {
		Excerpt
		Lines int `json:"lines"`
	}{*b.excerpt, b.excerpt.Lines()})
	if err != nil {
		s.AddValidationError(fmt.Sprintf("code content could not be rendered: %v", err))
		return
	}
	s.Content = content
}

func decodeExcerpt(content any) (Excerpt, error) {
	switch v := content.(type) {
	case nil:
		return Excerpt{}, errors.ValidationError("code content is required").Build()
	case Excerpt:
		return v, nil
	case *Excerpt:
		if v == nil {
			return Excerpt{}, errors.ValidationError("code content is required").Build()
		}
		return *v, nil
	case string:
		if ex, ok := ExtractFenced([]byte(v)); ok {
			return ex, nil
		}
		return Excerpt{Source: v}, nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return Excerpt{}, errors.WrapError(err, errors.CategoryValidation, "code content is not serializable").Build()
		}
		var ex Excerpt
		if err := json.Unmarshal(data, &ex); err != nil {
			return Excerpt{}, errors.WrapError(err, errors.CategoryValidation, "code content has an unexpected shape").Build()
		}
		return ex, nil
	default:
		return Excerpt{}, errors.ValidationError("unsupported code content").
			WithContext("type", fmt.Sprintf("%T", content)).
			Build()
	}
}

// ExtractFenced returns the first fenced code block of a Markdown document.
func ExtractFenced(source []byte) (Excerpt, bool) {
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var found *gmast.FencedCodeBlock
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if fcb, ok := n.(*gmast.FencedCodeBlock); ok && entering {
			found = fcb
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if found == nil {
		return Excerpt{}, false
	}

	var sb strings.Builder
	lines := found.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return Excerpt{Language: string(found.Language(source)), Source: sb.String()}, true
}
