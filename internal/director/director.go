// Package director drives builders through the fixed construction sequences
// and applies tenant-wide post-processing and validation rules.
package director

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/builder"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/observability"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
	"git.home.luguber.info/inful/slidebuilder/internal/strategy"
	"git.home.luguber.info/inful/slidebuilder/internal/tenant"
)

// Sequence names.
const (
	SequenceBasic        = "basic"
	SequenceStyled       = "styled"
	SequenceAdvanced     = "advanced"
	SequenceFromTemplate = "from_template"
	SequenceBatch        = "batch"
)

// BuilderResolver returns a fresh builder for a content type under a tenant.
type BuilderResolver interface {
	Resolve(contentType, tenantID string) (builder.Builder, error)
}

// StrategyResolver resolves tenant-declared presentation strategies.
type StrategyResolver interface {
	ResolveStyle(tenantID string) (strategy.StyleStrategy, bool, error)
	ResolveLayout(tenantID string) (strategy.LayoutStrategy, bool, error)
	DefaultStyle() strategy.StyleStrategy
	DefaultLayout() strategy.LayoutStrategy
}

// TenantSource looks tenant configurations up by id.
type TenantSource interface {
	Get(id string) (*tenant.Config, error)
}

var timeNow = func() time.Time { return time.Now().UTC() }

// Input is the caller-supplied data for a construction.
type Input struct {
	TenantID   string
	Title      string
	Subtitle   string
	Content    any
	Layout     map[string]any
	Style      map[string]any
	Metadata   map[string]any
	Assets     map[string][]string
	Animations map[string]any
}

func (in Input) summary(contentType string) string {
	return fmt.Sprintf("content_type=%s tenant=%s title=%q", contentType, in.TenantID, in.Title)
}

// Director runs construction sequences. A Director may be shared between
// goroutines; every call must use its own builder.
type Director struct {
	builders   BuilderResolver
	strategies StrategyResolver
	tenants    TenantSource
	history    *History
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Director.
type Option func(*Director)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Director) { d.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(d *Director) { d.logger = l }
}

// WithHistory shares an existing history.
func WithHistory(h *History) Option {
	return func(d *Director) {
		if h != nil {
			d.history = h
		}
	}
}

// New creates a Director.
func New(builders BuilderResolver, strategies StrategyResolver, tenants TenantSource, opts ...Option) *Director {
	d := &Director{
		builders:   builders,
		strategies: strategies,
		tenants:    tenants,
		history:    NewHistory(),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// History returns the construction trace.
func (d *Director) History() *History { return d.history }

// Basic runs reset, title, content, result. No styling and no tenant logic.
func (d *Director) Basic(ctx context.Context, b builder.Builder, title string, content any) (*slide.Slide, error) {
	in := Input{Title: title, Content: content}
	return d.run(ctx, SequenceBasic, b, in, func() (*slide.Slide, error) {
		b.Reset()
		if err := b.SetTitle(title); err != nil {
			return nil, err
		}
		if err := b.SetContent(content); err != nil {
			return nil, err
		}
		return b.Result(), nil
	})
}

// Styled is Basic plus an optional subtitle and explicit layout and style.
func (d *Director) Styled(ctx context.Context, b builder.Builder, in Input) (*slide.Slide, error) {
	return d.run(ctx, SequenceStyled, b, in, func() (*slide.Slide, error) {
		b.Reset()
		if err := d.styled(b, in); err != nil {
			return nil, err
		}
		return b.Result(), nil
	})
}

func (d *Director) styled(b builder.Builder, in Input) error {
	if err := b.SetTitle(in.Title); err != nil {
		return err
	}
	if in.Subtitle != "" {
		if err := b.SetSubtitle(in.Subtitle); err != nil {
			return err
		}
	}
	if err := b.SetContent(in.Content); err != nil {
		return err
	}
	if in.Layout != nil {
		if err := b.SetLayout(in.Layout); err != nil {
			return err
		}
	}
	if in.Style != nil {
		if err := b.SetStyle(in.Style); err != nil {
			return err
		}
	}
	return nil
}

// Advanced binds the tenant, applies its strategies, metadata, assets and
// animations, then post-processes the result and evaluates the tenant's rules.
func (d *Director) Advanced(ctx context.Context, b builder.Builder, in Input) (*slide.Slide, error) {
	return d.run(ctx, SequenceAdvanced, b, in, func() (*slide.Slide, error) {
		return d.advanced(ctx, b, in)
	})
}

func (d *Director) advanced(ctx context.Context, b builder.Builder, in Input) (*slide.Slide, error) {
	var cfg *tenant.Config
	if in.TenantID != "" {
		c, err := d.tenants.Get(in.TenantID)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	b.Reset()
	if cfg != nil {
		b.BindTenant(cfg.ID)
	}

	style, layout, err := d.presentation(b.ContentType(), in, cfg)
	if err != nil {
		return nil, err
	}

	title := in.Title
	if f, ok := style.strategy.(strategy.TitleFormatter); ok {
		title = f.FormatTitle(title)
	}
	if err := b.SetTitle(title); err != nil {
		return nil, err
	}
	if in.Subtitle != "" {
		if err := b.SetSubtitle(in.Subtitle); err != nil {
			return nil, err
		}
	}
	if err := b.SetContent(in.Content); err != nil {
		return nil, err
	}
	if err := b.SetLayout(layout); err != nil {
		return nil, err
	}
	if err := b.SetStyle(style.values); err != nil {
		return nil, err
	}

	for _, key := range slices.Sorted(maps.Keys(in.Metadata)) {
		if err := b.SetMetadata(key, in.Metadata[key]); err != nil {
			return nil, err
		}
	}
	for _, category := range slices.Sorted(maps.Keys(in.Assets)) {
		for _, ref := range in.Assets[category] {
			b.AddAsset(category, ref)
		}
	}
	if len(in.Animations) > 0 {
		if err := b.MergeAnimations(in.Animations); err != nil {
			return nil, err
		}
	}

	s := b.Result()
	if cfg != nil {
		if err := applyBranding(s, cfg.Branding); err != nil {
			return nil, err
		}
		d.evaluateRules(ctx, s, cfg)
		s.Touch()
		if fp, err := s.ComputeFingerprint(); err == nil {
			s.Fingerprint = fp
		}
	}
	return s, nil
}

type resolvedStyle struct {
	strategy strategy.StyleStrategy // nil when the caller's record is used
	values   map[string]any
}

// presentation picks style and layout records. A tenant strategy wins; the
// caller's explicit records are used only when the tenant declares none; the
// default strategies fill in when neither exists.
func (d *Director) presentation(contentType string, in Input, cfg *tenant.Config) (resolvedStyle, map[string]any, error) {
	sctx := strategy.Context{ContentType: contentType}
	if cfg != nil {
		sctx.TenantID = cfg.ID
	}

	var style resolvedStyle
	s, ok, err := d.strategies.ResolveStyle(sctx.TenantID)
	if err != nil {
		return resolvedStyle{}, nil, err
	}
	switch {
	case ok:
		style = resolvedStyle{strategy: s, values: map[string]any{}}
		pctx := sctx
		pctx.Preferences = cfg.StylePreferences
		s.ApplyStyle(pctx, style.values)
	case in.Style != nil:
		style = resolvedStyle{values: maps.Clone(in.Style)}
	default:
		def := d.strategies.DefaultStyle()
		style = resolvedStyle{strategy: def, values: map[string]any{}}
		def.ApplyStyle(sctx, style.values)
	}

	var layout map[string]any
	l, ok, err := d.strategies.ResolveLayout(sctx.TenantID)
	if err != nil {
		return resolvedStyle{}, nil, err
	}
	switch {
	case ok:
		layout = map[string]any{}
		pctx := sctx
		pctx.Preferences = cfg.LayoutPreferences
		l.ApplyLayout(pctx, layout)
	case in.Layout != nil:
		layout = maps.Clone(in.Layout)
	default:
		layout = map[string]any{}
		d.strategies.DefaultLayout().ApplyLayout(sctx, layout)
	}
	return style, layout, nil
}

// run wraps a sequence with logging, metrics and the history entry.
func (d *Director) run(ctx context.Context, sequence string, b builder.Builder, in Input, body func() (*slide.Slide, error)) (s *slide.Slide, err error) {
	if b == nil {
		err = errors.ConfigError("no builder supplied").WithContext("sequence", sequence).Build()
		d.record(ctx, sequence, in.summary(""), nil, nil, err, time.Now())
		return nil, err
	}

	ctx = observability.WithSequence(ctx, sequence)
	ctx = observability.WithContentType(ctx, b.ContentType())
	if in.TenantID != "" {
		ctx = observability.WithTenantID(ctx, in.TenantID)
	}
	observability.NewLogBuilder(ctx).WithLogger(d.logger).Debug("sequence started")

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = errors.InternalError(fmt.Sprintf("sequence %s panicked: %v", sequence, r)).
				WithContext("sequence", sequence).
				Build()
		}
		d.record(ctx, sequence, in.summary(b.ContentType()), s, b.Steps(), err, start)
	}()
	return body()
}

func (d *Director) record(ctx context.Context, sequence, input string, s *slide.Slide, steps []builder.Step, err error, start time.Time) {
	elapsed := time.Since(start)
	entry := Entry{
		Sequence:  sequence,
		Input:     input,
		Success:   err == nil,
		Steps:     steps,
		Timestamp: timeNow(),
	}
	outcome := metrics.ResultSuccess
	switch {
	case err != nil:
		entry.Error = err.Error()
		outcome = metrics.ResultFailed
	case s != nil:
		entry.DocumentID = s.ID
		entry.Valid = s.IsValid()
		if !entry.Valid {
			outcome = metrics.ResultInvalid
		}
	}
	d.history.append(entry)
	d.recorder.ObserveSequenceDuration(sequence, elapsed)
	d.recorder.IncSequenceOutcome(sequence, outcome)

	lb := observability.NewLogBuilder(ctx).WithLogger(d.logger).
		Attr(logfields.DurationMS(float64(elapsed.Microseconds()) / 1000))
	if s != nil {
		lb.Attr(logfields.DocumentID(s.ID))
	}
	if err != nil {
		lb.Attr(logfields.Error(err)).Debug("sequence failed")
		return
	}
	lb.Debug("sequence finished")
}
