package capability

import (
	"fmt"
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/bullets"
	"git.home.luguber.info/inful/slidebuilder/internal/builder/conversation"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
)

// titleOnly overrides SetTitle and nothing else.
type titleOnly struct {
	*builder.Base
}

func newTitleOnly() builder.Builder {
	return &titleOnly{Base: builder.NewBase("title-only", builder.Hooks{})}
}

func (b *titleOnly) SetTitle(title string) error { b.ApplyTitle(title); return nil }

func conversationMeta() Metadata {
	return Metadata{Name: "Conversation", Category: CategoryNarrative, Version: "v1.0.0", Features: []string{"code"}}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("conversation", conversation.NewConstructor(conversation.DefaultLimits()), conversationMeta()))
	require.True(t, r.Has("conversation"))
	require.Equal(t, 1, r.Count())

	reg, ok := r.Get("conversation")
	require.True(t, ok)
	require.Equal(t, "Conversation", reg.Metadata.Name)
	require.True(t, reg.Metadata.HasFeature("code"))

	err := r.Register("conversation", conversation.NewConstructor(conversation.DefaultLimits()), conversationMeta())
	require.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))
}

func TestRegister_PartialBuilderRejected(t *testing.T) {
	r := NewRegistry()

	err := r.Register("title-only", newTitleOnly, Metadata{Name: "Broken", Category: CategoryCustom, Version: "v0.1.0"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryStructural))
	require.Contains(t, err.Error(), "SetSubtitle")
	require.False(t, r.Has("title-only"))
	require.Zero(t, r.Count())

	_, err = r.New("title-only")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRegister_InvalidInput(t *testing.T) {
	r := NewRegistry()
	ctor := bullets.NewConstructor(bullets.DefaultLimits())

	tests := []struct {
		name     string
		key      string
		ctor     builder.Constructor
		meta     Metadata
		category errors.ErrorCategory
	}{
		{"empty key", " ", ctor, Metadata{Name: "B", Category: CategoryText, Version: "v1.0.0"}, errors.CategoryConfig},
		{"nil constructor", "x", nil, Metadata{Name: "B", Category: CategoryText, Version: "v1.0.0"}, errors.CategoryStructural},
		{"missing name", "x", ctor, Metadata{Category: CategoryText, Version: "v1.0.0"}, errors.CategoryConfig},
		{"missing category", "x", ctor, Metadata{Name: "B", Version: "v1.0.0"}, errors.CategoryConfig},
		{"bad version", "x", ctor, Metadata{Name: "B", Category: CategoryText, Version: "1.0"}, errors.CategoryConfig},
		{"nil instance", "x", func() builder.Builder { return nil }, Metadata{Name: "B", Category: CategoryText, Version: "v1.0.0"}, errors.CategoryStructural},
		{"panicking constructor", "x", func() builder.Builder { panic("nope") }, Metadata{Name: "B", Category: CategoryText, Version: "v1.0.0"}, errors.CategoryStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.key, tt.ctor, tt.meta)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, tt.category), "got %v", err)
		})
	}
	require.Zero(t, r.Count())
}

func TestNew_ReturnsFreshInstances(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bullets", bullets.NewConstructor(bullets.DefaultLimits()), Metadata{Name: "Bullets", Category: CategoryText, Version: "v1.0.0"}))

	a, err := r.New("bullets")
	require.NoError(t, err)
	b, err := r.New("bullets")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, bullets.ContentType, a.ContentType())

	// The probe instance must not leak state into later instances.
	require.Empty(t, a.Steps())
}

func TestRegisterAll_ReportsPerItem(t *testing.T) {
	rec := metrics.NewPrometheusRecorder(prom.NewRegistry(), "")
	r := NewRegistry(WithRecorder(rec))

	results := r.RegisterAll([]Registration{
		{Key: "conversation", Constructor: conversation.NewConstructor(conversation.DefaultLimits()), Metadata: conversationMeta()},
		{Key: "title-only", Constructor: newTitleOnly, Metadata: Metadata{Name: "Broken", Category: CategoryCustom, Version: "v0.1.0"}},
		{Key: "bullets", Constructor: bullets.NewConstructor(bullets.DefaultLimits()), Metadata: Metadata{Name: "Bullets", Category: CategoryText, Version: "v1.0.0"}},
	})

	require.Len(t, results, 3)
	require.True(t, results[0].OK())
	require.False(t, results[1].OK())
	require.True(t, errors.HasCategory(results[1].Err, errors.CategoryStructural))
	require.True(t, results[2].OK())
	require.Equal(t, 2, r.Count())
}

func TestRegisterAll_TypedNilBuilderDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry()

	results := r.RegisterAll([]Registration{
		{Key: "ghost", Constructor: func() builder.Builder { return (*conversation.Builder)(nil) }, Metadata: conversationMeta()},
		{Key: "bullets", Constructor: bullets.NewConstructor(bullets.DefaultLimits()), Metadata: Metadata{Name: "Bullets", Category: CategoryText, Version: "v1.0.0"}},
	})

	require.Len(t, results, 2)
	require.False(t, results[0].OK())
	require.True(t, errors.HasCategory(results[0].Err, errors.CategoryStructural))
	require.True(t, results[1].OK())
	require.False(t, r.Has("ghost"))
	require.True(t, r.Has("bullets"))
}

func TestQueries(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("conversation", conversation.NewConstructor(conversation.DefaultLimits()), conversationMeta()))
	require.NoError(t, r.Register("acme-conversation", conversation.NewConstructor(conversation.DefaultLimits()),
		Metadata{Name: "ACME Conversation", Category: CategoryNarrative, Version: "v2.1.0", TenantSpecific: true}))
	require.NoError(t, r.Register("bullets", bullets.NewConstructor(bullets.DefaultLimits()),
		Metadata{Name: "Bullets", Category: CategoryText, Version: "v1.0.0"}))

	keys := func(regs []Registration) []string {
		out := make([]string, 0, len(regs))
		for _, reg := range regs {
			out = append(out, reg.Key)
		}
		return out
	}

	require.Equal(t, []string{"acme-conversation", "bullets", "conversation"}, keys(r.List()))
	require.Equal(t, []string{"acme-conversation", "conversation"}, keys(r.ByCategory(CategoryNarrative)))
	require.Equal(t, []string{"acme-conversation"}, keys(r.TenantSpecific(true)))
	require.Equal(t, []string{"bullets", "conversation"}, keys(r.TenantSpecific(false)))
	require.Empty(t, r.ByCategory(CategoryTechnical))

	latest, ok := r.Latest(CategoryNarrative)
	require.True(t, ok)
	require.Equal(t, "acme-conversation", latest.Key)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("bullets", bullets.NewConstructor(bullets.DefaultLimits()), Metadata{Name: "Bullets", Category: CategoryText, Version: "v1.0.0"}))
	require.NoError(t, r.Unregister("bullets"))
	require.False(t, r.Has("bullets"))
	require.True(t, errors.HasCategory(r.Unregister("bullets"), errors.CategoryNotFound))
}

func TestReturnedMetadataIsACopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("conversation", conversation.NewConstructor(conversation.DefaultLimits()), conversationMeta()))

	reg, _ := r.Get("conversation")
	reg.Metadata.Features[0] = "mutated"

	again, _ := r.Get("conversation")
	require.Equal(t, []string{"code"}, again.Metadata.Features)
}

func TestConcurrentRegistrationAndLookup(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("bullets-%d", i)
			_ = r.Register(key, bullets.NewConstructor(bullets.DefaultLimits()), Metadata{Name: key, Category: CategoryText, Version: "v1.0.0"})
		}()
		go func() {
			defer wg.Done()
			_ = r.List()
			_, _ = r.New("bullets-0")
		}()
	}
	wg.Wait()
	require.Equal(t, 16, r.Count())
}
