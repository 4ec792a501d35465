package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RequestID   string
	TenantID    string
	Sequence    string
	ContentType string
	DocumentID  string
}

// contextKey is used for context values.
type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

func with(ctx context.Context, set func(*LogContext)) context.Context {
	lc := extractLogContext(ctx)
	set(&lc)
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.RequestID = id })
}

// WithTenantID adds a tenant ID to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.TenantID = tenantID })
}

// WithSequence adds the director sequence name to the context.
func WithSequence(ctx context.Context, sequence string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Sequence = sequence })
}

// WithContentType adds a content type to the context.
func WithContentType(ctx context.Context, contentType string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.ContentType = contentType })
}

// WithDocumentID adds a slide ID to the context.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.DocumentID = id })
}

// extractLogContext retrieves or creates a LogContext from the context.
func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RequestID != "" {
		attrs = append(attrs, logfields.RequestID(lc.RequestID))
	}
	if lc.TenantID != "" {
		attrs = append(attrs, logfields.TenantID(lc.TenantID))
	}
	if lc.Sequence != "" {
		attrs = append(attrs, logfields.Sequence(lc.Sequence))
	}
	if lc.ContentType != "" {
		attrs = append(attrs, logfields.ContentType(lc.ContentType))
	}
	if lc.DocumentID != "" {
		attrs = append(attrs, logfields.DocumentID(lc.DocumentID))
	}

	return attrs
}

// Log writes msg at level through logger (slog.Default when nil), prefixed
// with the attributes carried by ctx.
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger.LogAttrs(ctx, level, msg, append(getLogAttrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelInfo, msg, attrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelWarn, msg, attrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelError, msg, attrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelDebug, msg, attrs...)
}

// LogBuilder is a helper for building log messages with context.
type LogBuilder struct {
	ctx    context.Context
	logger *slog.Logger
	attrs  []slog.Attr
}

// NewLogBuilder creates a new log builder with context.
func NewLogBuilder(ctx context.Context) *LogBuilder {
	return &LogBuilder{ctx: ctx}
}

// WithLogger routes the message through logger instead of slog.Default.
func (lb *LogBuilder) WithLogger(logger *slog.Logger) *LogBuilder {
	lb.logger = logger
	return lb
}

// With adds an attribute to the log builder.
func (lb *LogBuilder) With(key string, value any) *LogBuilder {
	switch v := value.(type) {
	case string:
		lb.attrs = append(lb.attrs, slog.String(key, v))
	case int:
		lb.attrs = append(lb.attrs, slog.Int(key, v))
	case float64:
		lb.attrs = append(lb.attrs, slog.Float64(key, v))
	case bool:
		lb.attrs = append(lb.attrs, slog.Bool(key, v))
	case error:
		lb.attrs = append(lb.attrs, slog.String(key, v.Error()))
	default:
		lb.attrs = append(lb.attrs, slog.Any(key, v))
	}
	return lb
}

// Attr adds a prebuilt attribute.
func (lb *LogBuilder) Attr(attrs ...slog.Attr) *LogBuilder {
	lb.attrs = append(lb.attrs, attrs...)
	return lb
}

// Info logs an info message with accumulated attributes.
func (lb *LogBuilder) Info(msg string) { Log(lb.ctx, lb.logger, slog.LevelInfo, msg, lb.attrs...) }

// Warn logs a warning message with accumulated attributes.
func (lb *LogBuilder) Warn(msg string) { Log(lb.ctx, lb.logger, slog.LevelWarn, msg, lb.attrs...) }

// Error logs an error message with accumulated attributes.
func (lb *LogBuilder) Error(msg string) { Log(lb.ctx, lb.logger, slog.LevelError, msg, lb.attrs...) }

// Debug logs a debug message with accumulated attributes.
func (lb *LogBuilder) Debug(msg string) { Log(lb.ctx, lb.logger, slog.LevelDebug, msg, lb.attrs...) }

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// NewLogger builds a logger writing to w. format is "json" or "text"; level
// is one of debug, info, warn, error.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
