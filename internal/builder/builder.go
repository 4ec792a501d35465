// Package builder defines the construction contract shared by all content
// types and the embeddable Base that carries the operations common to every
// concrete builder.
//
// A concrete builder embeds *Base, overrides the five required setters and hands
// its type-specific behavior to NewBase as a Hooks record:
//
//	type Builder struct {
//		*builder.Base
//	}
//
//	func New() *Builder {
//		b := &Builder{}
//		b.Base = builder.NewBase("quote", builder.Hooks{Validate: b.validate})
//		return b
//	}
//
// Required setters that are not overridden resolve to Base's stubs, which fail
// with a structural error. The capability registry relies on that to reject
// partial implementations at registration time.
package builder

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// Builder is a content-type specific construction strategy.
//
// A Builder carries mutable in-progress state and must not be shared between
// concurrent constructions. Reset returns it to its pre-construction state so it
// can be reused serially.
type Builder interface {
	ContentType() string

	// Required operations; every concrete builder overrides these.
	SetTitle(title string) error
	SetSubtitle(subtitle string) error
	SetContent(content any) error
	SetLayout(layout map[string]any) error
	SetStyle(style map[string]any) error

	// Common operations provided by Base.
	SetMetadata(key string, value any) error
	BindTenant(tenantID string)
	AddAsset(category, ref string)
	MergeAnimations(hints map[string]any) error
	OnStep(fn func(Step))
	Steps() []Step
	Reset()
	Validate() slide.Validation
	Result() *slide.Slide
}

// Constructor creates a fresh builder instance.
type Constructor func() Builder

// Hooks is the capability record a concrete builder hands to its Base.
type Hooks struct {
	// Finalize renders accumulated builder state into the slide before validation.
	Finalize func(s *slide.Slide)
	// Validate applies type-specific rules after the universal ones.
	Validate func(s *slide.Slide)
	// Reset discards type-specific state.
	Reset func()
}

// Step records one builder call for the construction history.
type Step struct {
	Method  string    `json:"method"`
	Summary string    `json:"summary"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// RequiredOperations lists the setters every concrete builder must override.
var RequiredOperations = []string{"SetTitle", "SetSubtitle", "SetContent", "SetLayout", "SetStyle"}

// Base implements the operations shared by every builder.
type Base struct {
	contentType string
	hooks       Hooks
	doc         *slide.Slide
	steps       []Step
	observer    func(Step)
}

// NewBase creates a Base for the given content type.
func NewBase(contentType string, hooks Hooks) *Base {
	return &Base{
		contentType: contentType,
		hooks:       hooks,
		doc:         slide.New(contentType),
	}
}

func notImplemented(contentType, op string) error {
	return errors.StructuralError(fmt.Sprintf("%s is not implemented", op)).
		WithContext("content_type", contentType).
		WithContext("operation", op).
		Build()
}

// SetTitle must be overridden by the concrete builder.
func (b *Base) SetTitle(string) error { return notImplemented(b.contentType, "SetTitle") }

// SetSubtitle must be overridden by the concrete builder.
func (b *Base) SetSubtitle(string) error { return notImplemented(b.contentType, "SetSubtitle") }

// SetContent must be overridden by the concrete builder.
func (b *Base) SetContent(any) error { return notImplemented(b.contentType, "SetContent") }

// SetLayout must be overridden by the concrete builder.
func (b *Base) SetLayout(map[string]any) error { return notImplemented(b.contentType, "SetLayout") }

// SetStyle must be overridden by the concrete builder.
func (b *Base) SetStyle(map[string]any) error { return notImplemented(b.contentType, "SetStyle") }

// ContentType returns the content type key this builder produces.
func (b *Base) ContentType() string { return b.contentType }

// Slide returns the in-progress slide. Concrete builders mutate it through the
// Apply helpers so that every change is touched and recorded.
func (b *Base) Slide() *slide.Slide { return b.doc }

// ApplyTitle stores a trimmed title.
func (b *Base) ApplyTitle(title string) {
	b.doc.Title = strings.TrimSpace(title)
	b.mutated("SetTitle", b.doc.Title, nil)
}

// ApplySubtitle stores a trimmed subtitle.
func (b *Base) ApplySubtitle(subtitle string) {
	b.doc.Subtitle = strings.TrimSpace(subtitle)
	b.mutated("SetSubtitle", b.doc.Subtitle, nil)
}

// ApplyContent replaces the content payload with its canonical form.
func (b *Base) ApplyContent(content any) error {
	m, err := slide.CanonicalMap(content)
	if err != nil {
		b.mutated("SetContent", summarize(content), err)
		return err
	}
	b.doc.Content = m
	b.mutated("SetContent", summarize(m), nil)
	return nil
}

// ApplyLayout replaces the layout record.
func (b *Base) ApplyLayout(layout map[string]any) error {
	m, err := slide.CanonicalMap(layout)
	if err != nil {
		b.mutated("SetLayout", summarize(layout), err)
		return err
	}
	b.doc.Layout = m
	b.mutated("SetLayout", summarize(m), nil)
	return nil
}

// ApplyStyle replaces the style record.
func (b *Base) ApplyStyle(style map[string]any) error {
	m, err := slide.CanonicalMap(style)
	if err != nil {
		b.mutated("SetStyle", summarize(style), err)
		return err
	}
	b.doc.Style = m
	b.mutated("SetStyle", summarize(m), nil)
	return nil
}

// SetMetadata stores an arbitrary metadata value.
func (b *Base) SetMetadata(key string, value any) error {
	v, err := slide.Canonicalize(value)
	if err != nil {
		b.mutated("SetMetadata", key, err)
		return err
	}
	b.doc.Metadata[key] = v
	b.mutated("SetMetadata", key, nil)
	return nil
}

// BindTenant records the tenant this slide is built for.
func (b *Base) BindTenant(tenantID string) {
	b.doc.Metadata[slide.MetaTenantID] = tenantID
	b.mutated("BindTenant", tenantID, nil)
}

// AddAsset appends an asset reference under a category.
func (b *Base) AddAsset(category, ref string) {
	b.doc.AddAsset(category, ref)
	b.mutated("AddAsset", category+"="+ref, nil)
}

// MergeAnimations merges animation hints, overwriting existing keys.
func (b *Base) MergeAnimations(hints map[string]any) error {
	m, err := slide.CanonicalMap(hints)
	if err != nil {
		b.mutated("MergeAnimations", summarize(hints), err)
		return err
	}
	maps.Copy(b.doc.Animations, m)
	b.mutated("MergeAnimations", summarize(m), nil)
	return nil
}

// OnStep installs an observer invoked after every recorded step.
func (b *Base) OnStep(fn func(Step)) { b.observer = fn }

// Steps returns a copy of the steps recorded since the last Reset.
func (b *Base) Steps() []Step { return append([]Step(nil), b.steps...) }

// Record appends a step for a concrete-builder operation that is not one of the
// Apply helpers (e.g. AddTurn).
func (b *Base) Record(method, summary string, err error) {
	b.record(method, summary, err)
}

// Reset discards all accumulated state.
func (b *Base) Reset() {
	b.doc = slide.New(b.contentType)
	b.steps = nil
	if b.hooks.Reset != nil {
		b.hooks.Reset()
	}
}

// Validate recomputes the validation record from scratch: universal rules first,
// then the concrete builder's rules.
func (b *Base) Validate() slide.Validation {
	doc := b.doc
	doc.ClearValidation()

	if strings.TrimSpace(doc.Title) == "" {
		doc.AddValidationError("title is required")
	}
	if doc.ContentType == "" {
		doc.AddValidationError("content type is not assigned")
	}
	if len(doc.Content) == 0 {
		doc.AddValidationWarning("content is empty")
	}
	if b.hooks.Validate != nil {
		b.hooks.Validate(doc)
	}
	doc.Validation.ValidatedAt = time.Now().UTC()
	return doc.Validation
}

// Result finalizes and validates the slide before handing it out.
//
// The returned slide is the builder's working document, not a copy. Call
// Reset before reusing the builder; Reset starts a new document and leaves
// the returned one untouched. Setters called without a Reset mutate the
// slide already returned; Clone it first if it must outlive further calls.
func (b *Base) Result() *slide.Slide {
	if b.hooks.Finalize != nil {
		b.hooks.Finalize(b.doc)
	}
	b.Validate()
	fp, err := b.doc.ComputeFingerprint()
	if err == nil {
		b.doc.Fingerprint = fp
	}
	b.record("Result", b.doc.ID, err)
	return b.doc
}

func (b *Base) mutated(method, summary string, err error) {
	if err == nil {
		b.doc.Touch()
	}
	b.record(method, summary, err)
}

func (b *Base) record(method, summary string, err error) {
	step := Step{Method: method, Summary: summary, At: time.Now().UTC()}
	if err != nil {
		step.Err = err.Error()
	}
	b.steps = append(b.steps, step)
	if b.observer != nil {
		b.observer(step)
	}
}

const maxSummaryLen = 80

func summarize(v any) string {
	s := fmt.Sprintf("%v", v)
	if r := []rune(s); len(r) > maxSummaryLen {
		return string(r[:maxSummaryLen-3]) + "..."
	}
	return s
}
