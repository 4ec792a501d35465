package tenant

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// File is the YAML document holding tenant records.
type File struct {
	Tenants []Record `yaml:"tenants"`
}

// Record is the declarative form of a tenant configuration.
type Record struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Style             string            `yaml:"style,omitempty"`
	Layout            string            `yaml:"layout,omitempty"`
	Overrides         map[string]string `yaml:"overrides,omitempty"`
	LayoutPreferences map[string]any    `yaml:"layout_preferences,omitempty"`
	StylePreferences  map[string]any    `yaml:"style_preferences,omitempty"`
	Branding          BrandingRecord    `yaml:"branding,omitempty"`
	Rules             []RuleRecord      `yaml:"rules,omitempty"`
}

// BrandingRecord is the declarative form of Branding.
type BrandingRecord struct {
	WatermarkRequired bool           `yaml:"watermark_required"`
	WatermarkText     string         `yaml:"watermark_text,omitempty"`
	ComplianceLevel   string         `yaml:"compliance_level,omitempty"`
	Block             map[string]any `yaml:"block,omitempty"`
}

// RuleRecord names a catalog rule kind and its parameters.
type RuleRecord struct {
	Name     string         `yaml:"name"`
	Kind     string         `yaml:"kind"`
	Message  string         `yaml:"message"`
	Severity Severity       `yaml:"severity,omitempty"`
	Params   map[string]any `yaml:"params,omitempty"`
}

// ParseYAML decodes tenant records and binds their rules through catalog.
// Unknown fields are rejected. A nil catalog uses the built-in rule kinds.
func ParseYAML(data []byte, catalog *RuleCatalog) ([]*Config, error) {
	if catalog == nil {
		catalog = NewRuleCatalog()
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode tenant records").Build()
	}

	out := make([]*Config, 0, len(file.Tenants))
	seen := make(map[string]struct{}, len(file.Tenants))
	for i, rec := range file.Tenants {
		cfg, err := rec.toConfig(catalog)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("tenant record %d is invalid", i+1)).
				WithContext("tenant_id", rec.ID).
				Build()
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, errors.ConfigError(fmt.Sprintf("tenant %q is declared twice", cfg.ID)).Build()
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

func (rec Record) toConfig(catalog *RuleCatalog) (*Config, error) {
	cfg := &Config{
		ID:                rec.ID,
		Name:              rec.Name,
		StyleStrategy:     rec.Style,
		LayoutStrategy:    rec.Layout,
		Overrides:         rec.Overrides,
		LayoutPreferences: rec.LayoutPreferences,
		StylePreferences:  rec.StylePreferences,
		Branding: Branding{
			WatermarkRequired: rec.Branding.WatermarkRequired,
			WatermarkText:     rec.Branding.WatermarkText,
			ComplianceLevel:   rec.Branding.ComplianceLevel,
			Block:             rec.Branding.Block,
		},
	}
	for _, rr := range rec.Rules {
		pred, err := catalog.Bind(rr.Kind, rr.Params)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, Rule{
			Name:      rr.Name,
			Message:   rr.Message,
			Severity:  rr.Severity,
			Predicate: pred,
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
