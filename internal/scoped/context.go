package scoped

import (
	"context"

	"gather/pkg/domain"
	"gather/pkg/requestcontext"
)

// Context captures the identity facts scoping decisions depend on. It is
// derived per request from the authenticated principal, never persisted, and
// must not be shared across requests.
type Context struct {
	UserID        domain.UserID
	Authenticated bool
	IsAdmin       bool
	IsSuperAdmin  bool
}

// ContextFrom resolves the scoping context for the current request. It is a
// pure read: with no authenticated principal present every field is its zero
// value, and callers that require an identity raise their own error.
func ContextFrom(ctx context.Context) Context {
	userID, ok := requestcontext.UserID(ctx)
	return Context{
		UserID:        userID,
		Authenticated: ok,
		IsAdmin:       requestcontext.IsAdmin(ctx),
		IsSuperAdmin:  requestcontext.IsSuperAdmin(ctx),
	}
}
