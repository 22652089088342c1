// Package domain provides the error type and request-scoped context helpers
// shared by the checkout packages.
package domain

import (
	"context"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	// flowContextKey stores the checkout flow id.
	flowContextKey contextKey = iota

	// requestIDContextKey stores the request ID for tracing.
	requestIDContextKey
)

// --- Flow Context Helpers ---

// NewContextWithFlowID returns a new context with the checkout flow id attached.
func NewContextWithFlowID(ctx context.Context, flowID string) context.Context {
	return context.WithValue(ctx, flowContextKey, flowID)
}

// FlowIDFromContext retrieves the checkout flow id from context.
// Returns empty string if no flow is present.
func FlowIDFromContext(ctx context.Context) string {
	flowID, _ := ctx.Value(flowContextKey).(string)
	return flowID
}

// HasFlow returns true if there is a checkout flow id in context.
func HasFlow(ctx context.Context) bool {
	return FlowIDFromContext(ctx) != ""
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
