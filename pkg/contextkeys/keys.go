// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/casserver/pkg/contextkeys"
//	ctx = contextkeys.WithRequestID(ctx, id)
//	id := contextkeys.GetRequestID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains request ID string (UUID)
	// Set by: casweb.RequestIDMiddleware (pkg/casweb/middleware.go)
	// Used by: Logger, response headers
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *logrus.Entry scoped to the request
	// Set by: casweb.RequestIDMiddleware
	// Used by: Handlers and response writers that need structured logging
	// Type: *logrus.Entry
	LoggerKey Key = "logger"

	// RedirectSinkKey contains the request-scoped unauthorized redirect holder
	// Set by: casweb.ServiceAccessMiddleware
	// Used by: casweb.WriteAuthorizationFailure, login handlers
	// Type: *casweb.RedirectHolder
	RedirectSinkKey Key = "unauthorized_redirect"
)

// Helper functions for type-safe context operations

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithRedirectSink adds the redirect holder to the context
func WithRedirectSink(ctx context.Context, sink interface{}) context.Context {
	return context.WithValue(ctx, RedirectSinkKey, sink)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
