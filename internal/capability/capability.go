// Package capability catalogs the builders the engine can construct, keyed by
// content type, and rejects constructors that do not implement the full
// builder contract.
package capability

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Category groups registrations for discovery.
type Category string

const (
	CategoryNarrative Category = "narrative"
	CategoryText      Category = "text"
	CategoryTechnical Category = "technical"
	CategoryCustom    Category = "custom"
)

// Metadata describes a registered builder.
type Metadata struct {
	// Name is the human readable name (e.g. "Conversation").
	Name string

	// Category groups related builders.
	Category Category

	// Version is a semantic version with a leading "v" (e.g. "v1.2.0").
	Version string

	// TenantSpecific marks builders that exist only as a tenant override.
	TenantSpecific bool

	// Features lists optional capabilities (e.g. "code", "markdown").
	Features []string

	Description string
}

// String returns a human-readable representation of the metadata.
func (m Metadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Category)
}

// HasFeature reports whether the feature is declared.
func (m Metadata) HasFeature(feature string) bool {
	return slices.Contains(m.Features, feature)
}

// Validate checks that the metadata is complete.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.ConfigError("capability name is required").Build()
	}
	if m.Category == "" {
		return errors.ConfigError("capability category is required").
			WithContext("name", m.Name).
			Build()
	}
	if !semver.IsValid(m.Version) {
		return errors.ConfigError(fmt.Sprintf("capability version %q is not a semantic version", m.Version)).
			WithContext("name", m.Name).
			Build()
	}
	return nil
}

func (m Metadata) clone() Metadata {
	m.Features = slices.Clone(m.Features)
	return m
}

// Registration is a single catalog entry.
type Registration struct {
	Key         string
	Constructor builder.Constructor
	Metadata    Metadata
}

// Result reports the outcome of one item of a bulk registration.
type Result struct {
	Key string
	Err error
}

// OK reports whether the registration succeeded.
func (r Result) OK() bool { return r.Err == nil }
