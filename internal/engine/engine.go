// Package engine is the composition root: it wires configuration, the
// capability, strategy and tenant registries, the resolution factories,
// metrics and the director, and exposes the end-to-end construction calls.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/slidebuilder/internal/capability"
	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/director"
	"git.home.luguber.info/inful/slidebuilder/internal/factory"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/observability"
	"git.home.luguber.info/inful/slidebuilder/internal/slide"
	"git.home.luguber.info/inful/slidebuilder/internal/strategy"
	"git.home.luguber.info/inful/slidebuilder/internal/tenant"
	"git.home.luguber.info/inful/slidebuilder/internal/version"
)

// Request is a construction request: content type, tenant id and raw data.
type Request = director.Request

// Engine owns one isolated set of registries and a director.
type Engine struct {
	cfg          *config.Config
	capabilities *capability.Registry
	strategies   *strategy.Registry
	tenants      *tenant.Registry
	rules        *tenant.RuleCatalog
	builders     *factory.Builders
	resolver     *factory.Strategies
	director     *director.Director
	recorder     metrics.Recorder
	promRegistry *prom.Registry
	logger       *slog.Logger
}

type options struct {
	logger        *slog.Logger
	logOutput     io.Writer
	recorder      metrics.Recorder
	promRegistry  *prom.Registry
	tenants       []*tenant.Config
	tenantYAML    [][]byte
	registrations []capability.Registration
	rules         *tenant.RuleCatalog
}

// Option configures an Engine.
type Option func(*options)

// WithLogger replaces the logger built from the logging configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogOutput sets where the configured logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithRecorder injects a metrics recorder, bypassing the metrics configuration.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithPrometheusRegistry registers collectors on reg when metrics are enabled.
func WithPrometheusRegistry(reg *prom.Registry) Option {
	return func(o *options) { o.promRegistry = reg }
}

// WithTenants registers tenant configurations at construction.
func WithTenants(cfgs ...*tenant.Config) Option {
	return func(o *options) { o.tenants = append(o.tenants, cfgs...) }
}

// WithTenantYAML registers tenant records decoded from YAML at construction.
func WithTenantYAML(data []byte) Option {
	return func(o *options) { o.tenantYAML = append(o.tenantYAML, data) }
}

// WithBuilders registers additional builders after the built-in ones.
func WithBuilders(regs ...capability.Registration) Option {
	return func(o *options) { o.registrations = append(o.registrations, regs...) }
}

// WithRuleCatalog replaces the catalog used to bind YAML rule kinds.
func WithRuleCatalog(c *tenant.RuleCatalog) Option {
	return func(o *options) { o.rules = c }
}

// New builds an engine from cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		cfg:        cfg,
		strategies: strategy.NewDefaultRegistry(),
		tenants:    tenant.NewRegistry(),
		rules:      o.rules,
		logger:     o.logger,
	}
	if e.rules == nil {
		e.rules = tenant.NewRuleCatalog()
	}
	if e.logger == nil {
		e.logger = observability.NewLogger(string(cfg.Logging.Level), string(cfg.Logging.Format), o.logOutput)
	}

	switch {
	case o.recorder != nil:
		e.recorder = o.recorder
	case cfg.Metrics.Enabled:
		e.promRegistry = o.promRegistry
		if e.promRegistry == nil {
			e.promRegistry = prom.NewRegistry()
		}
		e.recorder = metrics.NewPrometheusRecorder(e.promRegistry, cfg.Metrics.Namespace)
	default:
		e.recorder = metrics.NoopRecorder{}
	}

	e.capabilities = capability.NewRegistry(capability.WithRecorder(e.recorder))
	regs := append(BuiltinRegistrations(cfg), o.registrations...)
	for _, res := range e.capabilities.RegisterAll(regs) {
		if !res.OK() {
			return nil, errors.WrapError(res.Err, errors.CategoryConfig, fmt.Sprintf("builder %q could not be registered", res.Key)).
				WithContext("builder_key", res.Key).
				Build()
		}
	}

	for _, data := range o.tenantYAML {
		if err := e.LoadTenantYAML(data); err != nil {
			return nil, err
		}
	}
	for _, tc := range o.tenants {
		if err := e.tenants.Register(tc); err != nil {
			return nil, err
		}
	}

	resolver, err := factory.NewStrategies(e.strategies, e.tenants, cfg.Defaults.Style, cfg.Defaults.Layout)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "default strategies are not registered").Build()
	}
	e.resolver = resolver
	e.builders = factory.NewBuilders(e.capabilities, e.tenants)
	e.director = director.New(e.builders, e.resolver, e.tenants,
		director.WithRecorder(e.recorder),
		director.WithLogger(e.logger))

	e.logger.Debug("engine ready",
		slog.String("version", version.String()),
		logfields.Count(e.capabilities.Count()),
		slog.Int("tenants", e.tenants.Count()))
	return e, nil
}

// LoadTenantYAML decodes tenant records and registers each one. Rule kinds
// are bound through the engine's rule catalog.
func (e *Engine) LoadTenantYAML(data []byte) error {
	cfgs, err := tenant.ParseYAML(data, e.rules)
	if err != nil {
		return err
	}
	for _, tc := range cfgs {
		if err := e.tenants.Register(tc); err != nil {
			return err
		}
	}
	return nil
}

// Build resolves a builder for req and runs the advanced sequence.
func (e *Engine) Build(ctx context.Context, req Request) (*slide.Slide, error) {
	ctx = e.requestContext(ctx, req.ContentType, req.TenantID)
	b, err := e.builders.Resolve(req.ContentType, req.TenantID)
	if err != nil {
		e.resolutionFailed(ctx, err)
		return nil, err
	}
	return e.director.Advanced(ctx, b, req.Input)
}

// BuildFromTemplate resolves a builder for contentType under the template's
// tenant and runs the template sequence.
func (e *Engine) BuildFromTemplate(ctx context.Context, contentType string, tpl director.Template, data map[string]any) (*slide.Slide, error) {
	ctx = e.requestContext(ctx, contentType, tpl.TenantID)
	b, err := e.builders.Resolve(contentType, tpl.TenantID)
	if err != nil {
		e.resolutionFailed(ctx, err)
		return nil, err
	}
	return e.director.FromTemplate(ctx, b, tpl, data)
}

// BuildBatch builds every request; failures are reported per item.
func (e *Engine) BuildBatch(ctx context.Context, requests []Request) director.BatchResult {
	if observability.GetContext(ctx).RequestID == "" {
		ctx = observability.WithRequestID(ctx, uuid.NewString())
	}
	return e.director.Batch(ctx, requests)
}

func (e *Engine) requestContext(ctx context.Context, contentType, tenantID string) context.Context {
	if observability.GetContext(ctx).RequestID == "" {
		ctx = observability.WithRequestID(ctx, uuid.NewString())
	}
	ctx = observability.WithContentType(ctx, contentType)
	if tenantID != "" {
		ctx = observability.WithTenantID(ctx, tenantID)
	}
	return ctx
}

func (e *Engine) resolutionFailed(ctx context.Context, err error) {
	observability.NewLogBuilder(ctx).WithLogger(e.logger).
		Attr(logfields.Error(err)).
		Warn("builder resolution failed")
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config { return e.cfg }

// Capabilities returns the capability registry.
func (e *Engine) Capabilities() *capability.Registry { return e.capabilities }

// Strategies returns the strategy registry.
func (e *Engine) Strategies() *strategy.Registry { return e.strategies }

// Tenants returns the tenant registry.
func (e *Engine) Tenants() *tenant.Registry { return e.tenants }

// RuleCatalog returns the catalog used to bind YAML rule kinds.
func (e *Engine) RuleCatalog() *tenant.RuleCatalog { return e.rules }

// Director returns the director.
func (e *Engine) Director() *director.Director { return e.director }

// History returns the construction trace.
func (e *Engine) History() *director.History { return e.director.History() }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Gatherer returns the Prometheus registry when metrics are enabled through
// the configuration, nil otherwise.
func (e *Engine) Gatherer() prom.Gatherer {
	if e.promRegistry == nil {
		return nil
	}
	return e.promRegistry
}
