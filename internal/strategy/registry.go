package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Registry holds the style and layout strategies known to the engine.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	styles  map[string]StyleStrategy
	layouts map[string]LayoutStrategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		styles:  make(map[string]StyleStrategy),
		layouts: make(map[string]LayoutStrategy),
	}
}

// NewDefaultRegistry creates a registry preloaded with the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range []StyleStrategy{Minimal{}, Corporate{}, Dark{}} {
		_ = r.RegisterStyle(s)
	}
	for _, l := range []LayoutStrategy{Standard{}, Split{}, Chat{}} {
		_ = r.RegisterLayout(l)
	}
	return r
}

// RegisterStyle adds a style strategy. Names are unique.
func (r *Registry) RegisterStyle(s StyleStrategy) error {
	if s == nil || strings.TrimSpace(s.Name()) == "" {
		return errors.ConfigError("style strategy must have a name").Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.styles[s.Name()]; ok {
		return errors.AlreadyExistsError(fmt.Sprintf("style %q already registered", s.Name())).Build()
	}
	r.styles[s.Name()] = s
	return nil
}

// RegisterLayout adds a layout strategy. Names are unique.
func (r *Registry) RegisterLayout(l LayoutStrategy) error {
	if l == nil || strings.TrimSpace(l.Name()) == "" {
		return errors.ConfigError("layout strategy must have a name").Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.layouts[l.Name()]; ok {
		return errors.AlreadyExistsError(fmt.Sprintf("layout %q already registered", l.Name())).Build()
	}
	r.layouts[l.Name()] = l
	return nil
}

// Style returns the named style strategy.
func (r *Registry) Style(name string) (StyleStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unknown style strategy %q", name)).
			WithContext("style", name).
			Build()
	}
	return s, nil
}

// Layout returns the named layout strategy.
func (r *Registry) Layout(name string) (LayoutStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[name]
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unknown layout strategy %q", name)).
			WithContext("layout", name).
			Build()
	}
	return l, nil
}

// Styles returns the registered style names, sorted.
func (r *Registry) Styles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.styles)
}

// Layouts returns the registered layout names, sorted.
func (r *Registry) Layouts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.layouts)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
