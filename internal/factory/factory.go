// Package factory resolves which builder and which presentation strategies
// serve a (content type, tenant) pair. Tenant declarations are consulted
// before defaults.
package factory

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/capability"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/strategy"
	"git.home.luguber.info/inful/slidebuilder/internal/tenant"
)

// TenantSource looks tenant configurations up by id.
type TenantSource interface {
	Get(id string) (*tenant.Config, error)
}

// Resolution is a resolved builder together with the capability key it came from.
type Resolution struct {
	Builder  builder.Builder
	Key      string
	Override bool
}

// Builders resolves builder instances.
type Builders struct {
	capabilities *capability.Registry
	tenants      TenantSource
}

// NewBuilders creates a builder factory.
func NewBuilders(capabilities *capability.Registry, tenants TenantSource) *Builders {
	return &Builders{capabilities: capabilities, tenants: tenants}
}

// Resolve returns a fresh builder for contentType under tenantID.
func (f *Builders) Resolve(contentType, tenantID string) (builder.Builder, error) {
	res, err := f.ResolveWithKey(contentType, tenantID)
	if err != nil {
		return nil, err
	}
	return res.Builder, nil
}

// ResolveWithKey is Resolve that also reports which registration was used.
//
// A tenant override names a capability key; an override pointing at an
// unregistered key is a configuration error rather than a silent fallback.
// An empty tenant id resolves defaults only; an unknown tenant id is a
// configuration error.
func (f *Builders) ResolveWithKey(contentType, tenantID string) (Resolution, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return Resolution{}, errors.ConfigError("content type is required").Build()
	}

	if tenantID != "" {
		cfg, err := f.tenants.Get(tenantID)
		if err != nil {
			return Resolution{}, err
		}
		if key, ok := cfg.Override(contentType); ok {
			if !f.capabilities.Has(key) {
				return Resolution{}, errors.ConfigError(
					fmt.Sprintf("tenant %q overrides %q with unregistered builder %q", tenantID, contentType, key)).
					WithContext("tenant_id", tenantID).
					WithContext("content_type", contentType).
					WithContext("builder_key", key).
					Build()
			}
			b, err := f.capabilities.New(key)
			if err != nil {
				return Resolution{}, err
			}
			return Resolution{Builder: b, Key: key, Override: true}, nil
		}
	}

	b, err := f.capabilities.New(contentType)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Builder: b, Key: contentType}, nil
}

// Strategies resolves style and layout strategies.
type Strategies struct {
	registry      *strategy.Registry
	tenants       TenantSource
	defaultStyle  strategy.StyleStrategy
	defaultLayout strategy.LayoutStrategy
}

// NewStrategies creates a strategy factory. The default style and layout
// must be registered.
func NewStrategies(registry *strategy.Registry, tenants TenantSource, defaultStyle, defaultLayout string) (*Strategies, error) {
	style, err := registry.Style(defaultStyle)
	if err != nil {
		return nil, err
	}
	layout, err := registry.Layout(defaultLayout)
	if err != nil {
		return nil, err
	}
	return &Strategies{registry: registry, tenants: tenants, defaultStyle: style, defaultLayout: layout}, nil
}

// ResolveStyle returns the style strategy declared by the tenant. ok is false
// when the tenant id is empty or the tenant declares none.
func (f *Strategies) ResolveStyle(tenantID string) (s strategy.StyleStrategy, ok bool, err error) {
	cfg, err := f.tenant(tenantID)
	if err != nil || cfg == nil || cfg.StyleStrategy == "" {
		return nil, false, err
	}
	s, err = f.registry.Style(cfg.StyleStrategy)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("tenant %q declares an unknown style", tenantID)).
			WithContext("tenant_id", tenantID).
			Build()
	}
	return s, true, nil
}

// ResolveLayout returns the layout strategy declared by the tenant. ok is
// false when the tenant id is empty or the tenant declares none.
func (f *Strategies) ResolveLayout(tenantID string) (l strategy.LayoutStrategy, ok bool, err error) {
	cfg, err := f.tenant(tenantID)
	if err != nil || cfg == nil || cfg.LayoutStrategy == "" {
		return nil, false, err
	}
	l, err = f.registry.Layout(cfg.LayoutStrategy)
	if err != nil {
		return nil, false, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("tenant %q declares an unknown layout", tenantID)).
			WithContext("tenant_id", tenantID).
			Build()
	}
	return l, true, nil
}

// DefaultStyle returns the configured default style.
func (f *Strategies) DefaultStyle() strategy.StyleStrategy { return f.defaultStyle }

// DefaultLayout returns the configured default layout.
func (f *Strategies) DefaultLayout() strategy.LayoutStrategy { return f.defaultLayout }

func (f *Strategies) tenant(id string) (*tenant.Config, error) {
	if id == "" {
		return nil, nil
	}
	return f.tenants.Get(id)
}
