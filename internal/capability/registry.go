package capability

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
)

// Registry maps content type keys to builder constructors.
//
// Registry is safe for concurrent use. Readers receive copies, never the
// internal map.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]Registration
	recorder metrics.Recorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(reg *Registry) { reg.recorder = metrics.OrNoop(r) }
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[string]Registration),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores a constructor under key. The constructor is
// instantiated once and probed for every required builder operation; a
// constructor whose instances miss any of them is rejected with a structural
// error and nothing is stored.
func (r *Registry) Register(key string, ctor builder.Constructor, meta Metadata) error {
	err := r.register(key, ctor, meta)
	if err != nil {
		r.recorder.IncRegistration(metrics.ResultRejected)
		return err
	}
	r.recorder.IncRegistration(metrics.ResultSuccess)
	return nil
}

func (r *Registry) register(key string, ctor builder.Constructor, meta Metadata) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.ConfigError("capability key is required").Build()
	}
	if ctor == nil {
		return errors.StructuralError("capability constructor is nil").
			WithContext("key", key).
			Build()
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	if r.Has(key) {
		return duplicate(key)
	}

	instance, err := instantiate(ctor)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStructural, "capability constructor failed").
			Fatal().
			WithContext("key", key).
			Build()
	}
	if err := builder.Probe(instance); err != nil {
		return errors.WrapError(err, errors.CategoryStructural, fmt.Sprintf("capability %q rejected", key)).
			Fatal().
			WithContext("key", key).
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check under the write lock; another writer may have won the race.
	if _, exists := r.entries[key]; exists {
		return duplicate(key)
	}
	r.entries[key] = Registration{Key: key, Constructor: ctor, Metadata: meta.clone()}
	return nil
}

func duplicate(key string) error {
	return errors.AlreadyExistsError(fmt.Sprintf("capability %q already registered", key)).
		WithContext("key", key).
		Build()
}

func instantiate(ctor builder.Constructor) (b builder.Builder, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	return ctor(), nil
}

// RegisterAll registers every item and reports per-item results in input
// order. A failing item never prevents the remaining items from registering.
func (r *Registry) RegisterAll(items []Registration) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, Result{
			Key: item.Key,
			Err: r.Register(item.Key, item.Constructor, item.Metadata),
		})
	}
	return results
}

// Get returns the registration for key.
func (r *Registry) Get(key string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[key]
	if !ok {
		return Registration{}, false
	}
	reg.Metadata = reg.Metadata.clone()
	return reg, true
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// New instantiates a fresh builder for key. Unknown keys are configuration
// errors.
func (r *Registry) New(key string) (builder.Builder, error) {
	reg, ok := r.Get(key)
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("no builder registered for %q", key)).
			WithContext("key", key).
			Build()
	}
	b, err := instantiate(reg.Constructor)
	if err != nil || b == nil {
		return nil, errors.InternalError(fmt.Sprintf("builder %q could not be instantiated", key)).
			WithCause(err).
			WithContext("key", key).
			Build()
	}
	return b, nil
}

// Unregister removes key from the registry.
func (r *Registry) Unregister(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return errors.NotFoundError(fmt.Sprintf("capability %q not found", key)).
			WithContext("key", key).
			Build()
	}
	delete(r.entries, key)
	return nil
}

// List returns every registration sorted by key.
func (r *Registry) List() []Registration {
	return r.filter(func(Registration) bool { return true })
}

// ByCategory returns the registrations in a category sorted by key.
func (r *Registry) ByCategory(category Category) []Registration {
	return r.filter(func(reg Registration) bool { return reg.Metadata.Category == category })
}

// TenantSpecific returns the registrations whose tenant-specific flag equals
// flag, sorted by key.
func (r *Registry) TenantSpecific(flag bool) []Registration {
	return r.filter(func(reg Registration) bool { return reg.Metadata.TenantSpecific == flag })
}

// Latest returns the registration with the highest version among those in
// category, if any.
func (r *Registry) Latest(category Category) (Registration, bool) {
	regs := r.ByCategory(category)
	if len(regs) == 0 {
		return Registration{}, false
	}
	best := regs[0]
	for _, reg := range regs[1:] {
		if semver.Compare(reg.Metadata.Version, best.Metadata.Version) > 0 {
			best = reg
		}
	}
	return best, true
}

// Count returns the number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) filter(keep func(Registration) bool) []Registration {
	r.mu.RLock()
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		if keep(reg) {
			reg.Metadata = reg.Metadata.clone()
			out = append(out, reg)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
