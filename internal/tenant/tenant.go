// Package tenant holds per-tenant construction configuration: preferred
// strategies, builder overrides, validation rules and branding.
package tenant

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

// Severity decides how a failed rule is attached to a slide.
type Severity string

const (
	// SeverityError makes the slide invalid.
	SeverityError Severity = "error"
	// SeverityWarning is advisory only.
	SeverityWarning Severity = "warning"
)

// IsValid reports whether s is a known severity. The empty value is accepted
// and treated as SeverityError.
func (s Severity) IsValid() bool {
	switch s {
	case "", SeverityError, SeverityWarning:
		return true
	default:
		return false
	}
}

// Predicate inspects a finished slide. Returning false marks a violation; a
// non-nil error is reported as a violation naming the rule.
type Predicate func(s *slide.Slide) (bool, error)

// Rule is a tenant-wide validation rule evaluated after construction.
type Rule struct {
	Name      string
	Message   string
	Severity  Severity
	Predicate Predicate
}

// EffectiveSeverity returns the rule's severity, defaulting to error.
func (r Rule) EffectiveSeverity() Severity {
	if r.Severity == "" {
		return SeverityError
	}
	return r.Severity
}

// Branding carries the tenant's post-processing requirements.
type Branding struct {
	WatermarkRequired bool
	WatermarkText     string
	// ComplianceLevel is stamped into slide metadata when set.
	ComplianceLevel string
	// Block is injected into slide content under "branding" when non-empty.
	Block map[string]any
}

// Config is the configuration of one tenant.
type Config struct {
	ID             string
	Name           string
	StyleStrategy  string
	LayoutStrategy string
	// Overrides maps a content type to the capability key of the builder
	// this tenant uses instead of the default.
	Overrides         map[string]string
	LayoutPreferences map[string]any
	StylePreferences  map[string]any
	Rules             []Rule
	Branding          Branding
}

// Override returns the builder key this tenant uses for contentType.
func (c *Config) Override(contentType string) (string, bool) {
	key, ok := c.Overrides[contentType]
	return key, ok && key != ""
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ConfigError("tenant configuration is nil").Build()
	}
	if strings.TrimSpace(c.ID) == "" {
		return errors.ConfigError("tenant id is required").Build()
	}
	seen := make(map[string]struct{}, len(c.Rules))
	for i, r := range c.Rules {
		if strings.TrimSpace(r.Name) == "" {
			return c.invalid(fmt.Sprintf("rule %d has no name", i+1))
		}
		if _, dup := seen[r.Name]; dup {
			return c.invalid(fmt.Sprintf("rule %q is declared twice", r.Name))
		}
		seen[r.Name] = struct{}{}
		if r.Predicate == nil {
			return c.invalid(fmt.Sprintf("rule %q has no predicate", r.Name))
		}
		if !r.Severity.IsValid() {
			return c.invalid(fmt.Sprintf("rule %q has unknown severity %q", r.Name, r.Severity))
		}
	}
	if c.Branding.WatermarkRequired && strings.TrimSpace(c.Branding.WatermarkText) == "" {
		return c.invalid("watermark is required but no watermark text is configured")
	}
	for contentType, key := range c.Overrides {
		if strings.TrimSpace(key) == "" {
			return c.invalid(fmt.Sprintf("override for %q names no builder", contentType))
		}
	}
	return nil
}

func (c *Config) invalid(msg string) error {
	return errors.ConfigError(msg).WithContext("tenant_id", c.ID).Build()
}

// Clone returns a copy that shares no mutable state with c. Predicates are
// shared; they are functions.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Overrides = maps.Clone(c.Overrides)
	out.LayoutPreferences = maps.Clone(c.LayoutPreferences)
	out.StylePreferences = maps.Clone(c.StylePreferences)
	out.Rules = slices.Clone(c.Rules)
	out.Branding.Block = maps.Clone(c.Branding.Block)
	return &out
}

// Context key for storing the tenant in a context
type contextKey string

const tenantContextKey contextKey = "tenant"

// ErrNoTenant is returned when no tenant is found in context
var ErrNoTenant = stderrors.New("no tenant in context")

// WithTenant stores a tenant configuration in the context
func WithTenant(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, tenantContextKey, cfg)
}

// FromContext retrieves a tenant configuration from the context
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(tenantContextKey).(*Config)
	if !ok || cfg == nil {
		return nil, ErrNoTenant
	}
	return cfg, nil
}
