// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services consume caller identity without pulling in
// transport code, and lets tests inject values directly.
package requestcontext

import (
	"context"
	"time"

	id "canvass/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey      struct{}
	roleKey         struct{}
	supervisorIDKey struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyActorID      = actorIDKey{}
	ContextKeyRole         = roleKey{}
	ContextKeySupervisorID = supervisorIDKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// ActorID retrieves the authenticated actor ID from the context.
// Returns the zero value if not set.
func ActorID(ctx context.Context) id.ActorID {
	if actorID, ok := ctx.Value(ContextKeyActorID).(id.ActorID); ok {
		return actorID
	}
	return id.ActorID{}
}

// WithActorID injects an actor ID into the context.
func WithActorID(ctx context.Context, actorID id.ActorID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// Role retrieves the authenticated actor's role from the context.
func Role(ctx context.Context) id.Role {
	if role, ok := ctx.Value(ContextKeyRole).(id.Role); ok {
		return role
	}
	return ""
}

// WithRole injects a role into the context.
func WithRole(ctx context.Context, role id.Role) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// SupervisorID retrieves the caller's supervisor ID, set only for team
// leaders.
func SupervisorID(ctx context.Context) id.ActorID {
	if sup, ok := ctx.Value(ContextKeySupervisorID).(id.ActorID); ok {
		return sup
	}
	return id.ActorID{}
}

// WithSupervisorID injects a supervisor ID into the context.
func WithSupervisorID(ctx context.Context, supervisorID id.ActorID) context.Context {
	return context.WithValue(ctx, ContextKeySupervisorID, supervisorID)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request arrival time if set, falling back to time.Now.
// Tests inject a fixed time with WithTime to pin time-dependent behavior.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
