package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTenantID    = "tenant_id"
	KeyContentType = "content_type"
	KeySequence    = "sequence"
	KeyDocumentID  = "document_id"
	KeyRequestID   = "request_id"
	KeyBuilderKey  = "builder_key"
	KeyRule        = "rule"
	KeySeverity    = "severity"
	KeyIndex       = "index"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func TenantID(id string) slog.Attr     { return slog.String(KeyTenantID, id) }
func ContentType(ct string) slog.Attr  { return slog.String(KeyContentType, ct) }
func Sequence(name string) slog.Attr   { return slog.String(KeySequence, name) }
func DocumentID(id string) slog.Attr   { return slog.String(KeyDocumentID, id) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func BuilderKey(key string) slog.Attr  { return slog.String(KeyBuilderKey, key) }
func Rule(name string) slog.Attr       { return slog.String(KeyRule, name) }
func Severity(s string) slog.Attr      { return slog.String(KeySeverity, s) }
func Index(i int) slog.Attr            { return slog.Int(KeyIndex, i) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
