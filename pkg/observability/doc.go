// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes the ambient instrumentation used by the admission
// check, the response builder and the HTTP adapter.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, observability.FormatJSON, os.Stderr)
//	logger.WithField("service", id).Warn("service access denied")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.RecordAccessDecision(false, "SERVICE_NOT_FOUND")
//
// All Record* methods are safe to call on a nil *Metrics.
//
// # OpenTelemetry
//
// Spans are started from observability.Tracer(), which reads the global
// tracer provider. Installing a provider is left to the host process.
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/authz: Access decision logging and metrics
package observability
