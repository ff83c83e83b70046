package testutil

import (
	"context"
	"net/http"

	"gather/pkg/domain"
	"gather/pkg/requestcontext"
)

// WithPrincipal attaches an authenticated user to the request context,
// simulating what the auth middleware does for real requests.
func WithPrincipal(req *http.Request, userID domain.UserID, roles ...string) *http.Request {
	ctx := requestcontext.WithUser(req.Context(), userID, roles)
	return req.WithContext(ctx)
}

// UserContext returns a background context carrying a fresh authenticated
// user, for service-level tests.
func UserContext(roles ...string) (context.Context, domain.UserID) {
	id := domain.NewUserID()
	return requestcontext.WithUser(context.Background(), id, roles), id
}
