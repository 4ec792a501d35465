package tenant

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

type snapshot map[string]*Config

// Registry stores tenant configurations.
//
// Reads load an immutable snapshot without locking; writes copy the snapshot,
// modify the copy and publish it under a mutex. A resolution that started
// before a write completes against the snapshot it loaded.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := snapshot{}
	r.snap.Store(&empty)
	return r
}

func (r *Registry) load() snapshot { return *r.snap.Load() }

// write applies fn to a copy of the current snapshot and publishes it when fn
// succeeds.
func (r *Registry) write(fn func(next snapshot) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.load()
	next := make(snapshot, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	if err := fn(next); err != nil {
		return err
	}
	r.snap.Store(&next)
	return nil
}

// Register adds a new tenant.
func (r *Registry) Register(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	stored := cfg.Clone()
	return r.write(func(next snapshot) error {
		if _, exists := next[stored.ID]; exists {
			return errors.AlreadyExistsError(fmt.Sprintf("tenant %q already registered", stored.ID)).
				WithContext("tenant_id", stored.ID).
				Build()
		}
		next[stored.ID] = stored
		return nil
	})
}

// Update replaces an existing tenant.
func (r *Registry) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	stored := cfg.Clone()
	return r.write(func(next snapshot) error {
		if _, exists := next[stored.ID]; !exists {
			return unknown(stored.ID)
		}
		next[stored.ID] = stored
		return nil
	})
}

// Remove deletes a tenant.
func (r *Registry) Remove(id string) error {
	return r.write(func(next snapshot) error {
		if _, exists := next[id]; !exists {
			return unknown(id)
		}
		delete(next, id)
		return nil
	})
}

// Get returns a copy of the tenant's configuration. Unknown tenants are
// configuration errors.
func (r *Registry) Get(id string) (*Config, error) {
	cfg, ok := r.load()[id]
	if !ok {
		return nil, unknown(id)
	}
	return cfg.Clone(), nil
}

// Has reports whether the tenant is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.load()[id]
	return ok
}

// List returns copies of every tenant sorted by id.
func (r *Registry) List() []*Config {
	snap := r.load()
	out := make([]*Config, 0, len(snap))
	for _, cfg := range snap {
		out = append(out, cfg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tenants.
func (r *Registry) Count() int { return len(r.load()) }

func unknown(id string) error {
	return errors.ConfigError(fmt.Sprintf("unknown tenant %q", id)).
		WithContext("tenant_id", id).
		Build()
}
