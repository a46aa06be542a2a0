// Package contextkeys defines the context keys shared between HTTP middleware
// and handlers.
//
//	ctx = contextkeys.WithRequestID(ctx, id)
//	id := contextkeys.GetRequestID(ctx)
package contextkeys

import (
	"context"

	"github.com/platinummonkey/fares-validator/pkg/observability"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains the request ID string
	// Set by: httputil.RequestIDMiddleware
	// Used by: request logger, API error logs
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger scoped to the request
	// Set by: httputil.LoggingMiddleware
	LoggerKey Key = "logger"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithLogger adds a request scoped logger to the context
func WithLogger(ctx context.Context, logger *observability.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLogger retrieves the request logger, falling back to fallback
func GetLogger(ctx context.Context, fallback *observability.Logger) *observability.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*observability.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
