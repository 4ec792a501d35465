// Package slide defines the document record produced by construction and its
// validation state.
package slide

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Well-known metadata keys.
const (
	MetaTenantID        = "tenant_id"
	MetaComplianceLevel = "compliance_level"
)

// Slide is a constructed content document.
//
// A Slide is mutated only through builder setters while under construction and
// is treated as an immutable snapshot once a builder hands it out. Use Clone to
// derive a new slide from a finished one.
type Slide struct {
	ID          string              `json:"id"`
	ContentType string              `json:"content_type"`
	Title       string              `json:"title"`
	Subtitle    string              `json:"subtitle"`
	Content     map[string]any      `json:"content"`
	Layout      map[string]any      `json:"layout"`
	Style       map[string]any      `json:"style"`
	Metadata    map[string]any      `json:"metadata"`
	Assets      map[string][]string `json:"assets"`
	Animations  map[string]any      `json:"animations"`
	Fingerprint string              `json:"fingerprint"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Validation  Validation          `json:"validation"`
}

// now is replaced in tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

// NewID returns a fresh slide identity.
func NewID() string { return uuid.NewString() }

// New creates an empty slide for the given content type.
func New(contentType string) *Slide {
	ts := now()
	return &Slide{
		ID:          NewID(),
		ContentType: contentType,
		Content:     map[string]any{},
		Layout:      map[string]any{},
		Style:       map[string]any{},
		Metadata:    map[string]any{},
		Assets:      map[string][]string{},
		Animations:  map[string]any{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Validation:  NewValidation(),
	}
}

// Touch records a mutation.
func (s *Slide) Touch() {
	s.UpdatedAt = now()
}

// TenantID returns the tenant the slide was built for, if any.
func (s *Slide) TenantID() string {
	id, _ := s.Metadata[MetaTenantID].(string)
	return id
}

// IsValid reports whether the last validation pass produced no errors.
func (s *Slide) IsValid() bool {
	return s.Validation.IsValid
}

// AddValidationError appends an error and marks the slide invalid.
func (s *Slide) AddValidationError(msg string) {
	s.Validation.addError(msg, now())
}

// AddValidationWarning appends a warning. Warnings never affect validity.
func (s *Slide) AddValidationWarning(msg string) {
	s.Validation.addWarning(msg, now())
}

// ClearValidation resets the validation record to a clean, valid state.
func (s *Slide) ClearValidation() {
	s.Validation = NewValidation()
}

// AddAsset appends an asset reference under a category.
func (s *Slide) AddAsset(category, ref string) {
	if s.Assets == nil {
		s.Assets = map[string][]string{}
	}
	s.Assets[category] = append(s.Assets[category], ref)
}

// Clone returns a structural deep copy with a fresh identity, fresh timestamps
// and a cleared validation record. A clone is not pre-validated.
func (s *Slide) Clone() *Slide {
	ts := now()
	clone := &Slide{
		ID:          NewID(),
		ContentType: s.ContentType,
		Title:       s.Title,
		Subtitle:    s.Subtitle,
		Content:     deepCopyMap(s.Content),
		Layout:      deepCopyMap(s.Layout),
		Style:       deepCopyMap(s.Style),
		Metadata:    deepCopyMap(s.Metadata),
		Assets:      make(map[string][]string, len(s.Assets)),
		Animations:  deepCopyMap(s.Animations),
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Validation:  NewValidation(),
	}
	for category, refs := range s.Assets {
		clone.Assets[category] = append([]string{}, refs...)
	}
	return clone
}

// Marshal serializes the slide to JSON.
func (s *Slide) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to serialize slide").
			WithContext("slide_id", s.ID).
			Build()
	}
	return data, nil
}

// Unmarshal restores a slide serialized with Marshal. Absent collections and
// an absent validation record are restored to their empty defaults.
func Unmarshal(data []byte) (*Slide, error) {
	var s Slide
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to deserialize slide").Build()
	}
	s.normalize()
	return &s, nil
}

func (s *Slide) normalize() {
	if s.Content == nil {
		s.Content = map[string]any{}
	}
	if s.Layout == nil {
		s.Layout = map[string]any{}
	}
	if s.Style == nil {
		s.Style = map[string]any{}
	}
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	if s.Assets == nil {
		s.Assets = map[string][]string{}
	}
	for category, refs := range s.Assets {
		if refs == nil {
			s.Assets[category] = []string{}
		}
	}
	if s.Animations == nil {
		s.Animations = map[string]any{}
	}
	s.Validation.normalize()
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		return append([]string{}, val...)
	case map[string]string:
		return maps.Clone(val)
	default:
		return val
	}
}
