// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// typically set by middleware but consumed by services. By keeping this package free
// of net/http dependencies, services can import only what they need without pulling
// in HTTP-related code.
//
// Usage in services (read values):
//
//	conversationID := requestcontext.ConversationID(ctx)
//	correlationID := requestcontext.CorrelationID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithConversationID(ctx, conversationID)
//	ctx = requestcontext.WithCorrelationID(ctx, correlationID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	integrationIDKey  struct{}
	conversationIDKey struct{}
	subjectIDKey      struct{}
	correlationIDKey  struct{}
	requestTimeKey    struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyIntegrationID  = integrationIDKey{}
	ContextKeyConversationID = conversationIDKey{}
	ContextKeySubjectID      = subjectIDKey{}
	ContextKeyCorrelationID  = correlationIDKey{}
	ContextKeyRequestTime    = requestTimeKey{}
)

// IntegrationID retrieves the integration handling the current request.
// Returns "" if not set.
func IntegrationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyIntegrationID).(string); ok {
		return v
	}
	return ""
}

// WithIntegrationID injects an integration id into the context.
func WithIntegrationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyIntegrationID, id)
}

// ConversationID retrieves the conversation the current request belongs to.
// Returns "" if not set.
func ConversationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyConversationID).(string); ok {
		return v
	}
	return ""
}

// WithConversationID injects a conversation id into the context.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyConversationID, id)
}

// SubjectID retrieves the subject (patient) identifier, typically a phone
// number. Returns "" if not set.
func SubjectID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeySubjectID).(string); ok {
		return v
	}
	return ""
}

// WithSubjectID injects a subject identifier into the context.
func WithSubjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeySubjectID, id)
}

// CorrelationID retrieves the correlation id linking audit records produced
// by one logical operation. Returns "" if not set.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyCorrelationID).(string); ok {
		return v
	}
	return ""
}

// WithCorrelationID injects a correlation id into the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationID, id)
}

// Now returns the request time from the context, falling back to time.Now.
// Tests inject a fixed time with WithTime.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return v
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
