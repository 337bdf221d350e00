// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services consume them without importing
// net/http. Tests inject values directly:
//
//	ctx = requestcontext.WithOrganisationID(ctx, "MN00001")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "roboreg/pkg/domain"
)

type (
	organisationIDKey struct{}
	adminIDKey        struct{}
	requestIDKey      struct{}
	requestTimeKey    struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyOrganisationID = organisationIDKey{}
	ContextKeyAdminID        = adminIDKey{}
	ContextKeyRequestID      = requestIDKey{}
	ContextKeyRequestTime    = requestTimeKey{}
)

// OrganisationID retrieves the acting organisation from the context.
// Returns the empty ID if not set (unauthenticated or admin request).
func OrganisationID(ctx context.Context) id.OrganisationID {
	if orgID, ok := ctx.Value(ContextKeyOrganisationID).(id.OrganisationID); ok {
		return orgID
	}
	return ""
}

// WithOrganisationID injects the acting organisation into the context.
func WithOrganisationID(ctx context.Context, orgID id.OrganisationID) context.Context {
	return context.WithValue(ctx, ContextKeyOrganisationID, orgID)
}

// AdminID retrieves the acting admin identity from the context.
func AdminID(ctx context.Context) string {
	if adminID, ok := ctx.Value(ContextKeyAdminID).(string); ok {
		return adminID
	}
	return ""
}

// WithAdminID injects the acting admin identity into the context.
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, ContextKeyAdminID, adminID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so all writes within one
// request share the same timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
