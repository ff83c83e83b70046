// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// This package defines context keys and getter/setter functions for values
// set by middleware after authentication and consumed by services and the
// scoped data-access layer. Keeping it free of net/http lets services import
// only what they need.
//
// Usage in services (read values):
//
//	userID, ok := requestcontext.UserID(ctx)
//	if requestcontext.IsSuperAdmin(ctx) { ... }
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUser(ctx, userID, roles)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithUser(ctx, userID, []string{"admin"})
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"slices"
	"time"

	"gather/pkg/domain"
)

// Role names recognised by the platform. Super-admins bypass ownership
// scoping entirely; admins count as admins and nothing more.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey    struct{}
	rolesKey     struct{}
	requestIDKey struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
	timeKey      struct{}
)

// UserID retrieves the authenticated user ID from the context. The second
// return reports whether a principal is present; absence is not an error,
// callers that require an identity must raise their own.
func UserID(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(userIDKey{}).(domain.UserID)
	return id, ok && !id.IsZero()
}

// Roles retrieves the authenticated principal's role names. Returns nil when
// no principal is present.
func Roles(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey{}).([]string)
	return roles
}

// IsSuperAdmin reports whether the current principal holds the superadmin
// role. False when unauthenticated.
func IsSuperAdmin(ctx context.Context) bool {
	return slices.Contains(Roles(ctx), RoleSuperAdmin)
}

// IsAdmin reports whether the current principal holds the admin or superadmin
// role. False when unauthenticated.
func IsAdmin(ctx context.Context) bool {
	roles := Roles(ctx)
	return slices.Contains(roles, RoleAdmin) || slices.Contains(roles, RoleSuperAdmin)
}

// WithUser injects the authenticated principal into the context.
func WithUser(ctx context.Context, userID domain.UserID, roles []string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	return context.WithValue(ctx, rolesKey{}, roles)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// UserAgent retrieves the client user agent summary from the context.
func UserAgent(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey{}).(string)
	return ua
}

// WithClientMetadata injects client IP and user agent into a context.
// Useful for service unit tests that don't run the HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts like workers, CLI, and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context so a batch of writes shares
// one timestamp and tests stay deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}
