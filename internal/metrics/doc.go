// Package metrics provides construction metrics for the slide engine.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	d := director.New(factory, director.WithRecorder(metrics.NoopRecorder{}))
//
// To enable metrics, register a PrometheusRecorder on a caller-owned registry:
//
//	reg := prometheus.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg, "slidebuilder")
//
// Exposing the registry over HTTP is the caller's concern.
package metrics
