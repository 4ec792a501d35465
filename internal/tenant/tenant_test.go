package tenant

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
)

func alwaysTrue(*slide.Slide) (bool, error) { return true, nil }

func acme() *Config {
	return &Config{
		ID:             "acme",
		Name:           "ACME Corp",
		StyleStrategy:  "corporate",
		LayoutStrategy: "split",
		Overrides:      map[string]string{"conversation": "acme-conversation"},
		Rules:          []Rule{{Name: "always", Message: "never fails", Predicate: alwaysTrue}},
		Branding:       Branding{WatermarkRequired: true, WatermarkText: "ACME Confidential", ComplianceLevel: "sox"},
	}
}

func TestWithTenant(t *testing.T) {
	ctx := WithTenant(context.Background(), acme())
	retrieved, err := FromContext(ctx)
	require.NoError(t, err)
	require.Equal(t, "acme", retrieved.ID)
}

func TestFromContextNoTenant(t *testing.T) {
	_, err := FromContext(context.Background())
	require.ErrorIs(t, err, ErrNoTenant)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, acme().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing id", func(c *Config) { c.ID = "" }},
		{"unnamed rule", func(c *Config) { c.Rules[0].Name = "" }},
		{"duplicate rule", func(c *Config) { c.Rules = append(c.Rules, c.Rules[0]) }},
		{"nil predicate", func(c *Config) { c.Rules[0].Predicate = nil }},
		{"bad severity", func(c *Config) { c.Rules[0].Severity = "fatal" }},
		{"watermark without text", func(c *Config) { c.Branding.WatermarkText = " " }},
		{"empty override", func(c *Config) { c.Overrides["bullets"] = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := acme()
			tt.mutate(c)
			require.True(t, errors.HasCategory(c.Validate(), errors.CategoryConfig))
		})
	}

	var nilCfg *Config
	require.Error(t, nilCfg.Validate())
}

func TestRule_EffectiveSeverity(t *testing.T) {
	require.Equal(t, SeverityError, Rule{}.EffectiveSeverity())
	require.Equal(t, SeverityWarning, Rule{Severity: SeverityWarning}.EffectiveSeverity())
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(acme()))
	require.True(t, errors.HasCategory(r.Register(acme()), errors.CategoryAlreadyExists))

	got, err := r.Get("acme")
	require.NoError(t, err)
	require.Equal(t, "ACME Corp", got.Name)
	key, ok := got.Override("conversation")
	require.True(t, ok)
	require.Equal(t, "acme-conversation", key)
	_, ok = got.Override("bullets")
	require.False(t, ok)

	updated := acme()
	updated.Name = "ACME Inc"
	require.NoError(t, r.Update(updated))
	got, _ = r.Get("acme")
	require.Equal(t, "ACME Inc", got.Name)

	require.True(t, errors.HasCategory(r.Update(&Config{ID: "ghost"}), errors.CategoryConfig))

	require.NoError(t, r.Remove("acme"))
	_, err = r.Get("acme")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.True(t, errors.HasCategory(r.Remove("acme"), errors.CategoryConfig))
}

func TestRegistry_IsolatesCallers(t *testing.T) {
	r := NewRegistry()
	cfg := acme()
	require.NoError(t, r.Register(cfg))

	cfg.Overrides["conversation"] = "mutated"
	got, _ := r.Get("acme")
	require.Equal(t, "acme-conversation", got.Overrides["conversation"])

	got.Overrides["conversation"] = "mutated"
	again, _ := r.Get("acme")
	require.Equal(t, "acme-conversation", again.Overrides["conversation"])
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(&Config{ID: id}))
	}
	var ids []string
	for _, c := range r.List() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, ids)
	require.Equal(t, 3, r.Count())
	require.True(t, r.Has("mid"))
}

func TestRegistry_ConcurrentReadsAndWrites(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := r.Register(&Config{ID: fmt.Sprintf("t%d", i)}); err != nil {
				t.Error(err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = r.List()
			_, _ = r.Get("t0")
		}()
	}
	wg.Wait()
	require.Equal(t, 32, r.Count())
}

const tenantsYAML = `
tenants:
  - id: acme
    name: ACME Corp
    style: corporate
    layout: split
    overrides:
      conversation: acme-conversation
    layout_preferences:
      padding: 64
    branding:
      watermark_required: true
      watermark_text: ACME Confidential
      compliance_level: sox
      block:
        logo: acme.svg
    rules:
      - name: short-title
        kind: title_max_length
        message: Titles must fit on one line
        params: {max: 20}
      - name: no-internal
        kind: forbidden_words
        severity: warning
        message: Avoid internal code names
        params:
          words: [Falcon, "project x"]
  - id: globex
    name: Globex
`

func TestParseYAML(t *testing.T) {
	cfgs, err := ParseYAML([]byte(tenantsYAML), nil)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	a := cfgs[0]
	require.Equal(t, "corporate", a.StyleStrategy)
	require.Equal(t, "split", a.LayoutStrategy)
	require.Equal(t, 64, a.LayoutPreferences["padding"])
	require.Equal(t, "acme.svg", a.Branding.Block["logo"])
	require.True(t, a.Branding.WatermarkRequired)
	require.Len(t, a.Rules, 2)
	require.Equal(t, SeverityError, a.Rules[0].EffectiveSeverity())
	require.Equal(t, SeverityWarning, a.Rules[1].EffectiveSeverity())

	s := slide.New("conversation")
	s.Title = "A title that is far too long"
	ok, err := a.Rules[0].Predicate(s)
	require.NoError(t, err)
	require.False(t, ok)

	s.Title = "Falcon launch"
	ok, _ = a.Rules[1].Predicate(s)
	require.False(t, ok)
	s.Title = "Launch"
	s.Content = map[string]any{"turns": []any{map[string]any{"text": "about PROJECT X"}}}
	ok, _ = a.Rules[1].Predicate(s)
	require.False(t, ok)
	s.Content = map[string]any{}
	ok, _ = a.Rules[1].Predicate(s)
	require.True(t, ok)

	require.Empty(t, cfgs[1].Rules)
}

func TestParseYAML_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "tenants:\n  - id: a\n    colour: red\n"},
		{"unknown rule kind", "tenants:\n  - id: a\n    rules:\n      - {name: r, kind: telepathy}\n"},
		{"bad rule params", "tenants:\n  - id: a\n    rules:\n      - {name: r, kind: title_max_length, params: {max: many}}\n"},
		{"missing id", "tenants:\n  - name: nobody\n"},
		{"duplicate id", "tenants:\n  - id: a\n  - id: a\n"},
		{"watermark without text", "tenants:\n  - id: a\n    branding: {watermark_required: true}\n"},
		{"malformed", "tenants: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.yaml), nil)
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}

	cfgs, err := ParseYAML(nil, nil)
	require.NoError(t, err)
	require.Empty(t, cfgs)
}

func TestRuleCatalog(t *testing.T) {
	c := NewRuleCatalog()
	require.Equal(t, []string{"forbidden_words", "max_turns", "requires_asset", "requires_metadata", "title_max_length"}, c.Kinds())

	s := slide.New("conversation")

	pred, err := c.Bind("requires_metadata", map[string]any{"key": "owner"})
	require.NoError(t, err)
	ok, _ := pred(s)
	require.False(t, ok)
	s.Metadata["owner"] = "docs-team"
	ok, _ = pred(s)
	require.True(t, ok)

	pred, err = c.Bind("requires_asset", map[string]any{"category": "avatars"})
	require.NoError(t, err)
	ok, _ = pred(s)
	require.False(t, ok)
	s.AddAsset("avatars", "a.png")
	ok, _ = pred(s)
	require.True(t, ok)

	pred, err = c.Bind("max_turns", map[string]any{"max": 1.0})
	require.NoError(t, err)
	ok, _ = pred(s)
	require.True(t, ok, "slides without turns pass")
	s.Content = map[string]any{"turns": []any{"a", "b"}}
	ok, _ = pred(s)
	require.False(t, ok)
	s.Content = map[string]any{"turns": "broken"}
	_, err = pred(s)
	require.Error(t, err)

	c.Register("always", func(map[string]any) (Predicate, error) { return alwaysTrue, nil })
	_, err = c.Bind("always", nil)
	require.NoError(t, err)

	c.Register("broken", func(map[string]any) (Predicate, error) { return nil, stderrors.New("bad") })
	_, err = c.Bind("broken", nil)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
