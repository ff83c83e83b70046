package scoped

import (
	dErrors "gather/pkg/domain-errors"
)

// Authorization failures below deliberately reuse one neutral message for
// "row missing" and "row owned by someone else" so callers cannot probe for
// the existence of other users' records.
var (
	errNotAuthenticated = dErrors.New(dErrors.CodeUnauthorized,
		"operation on an owned entity requires an authenticated user")
	errNotYours = dErrors.New(dErrors.CodeForbidden,
		"record does not exist or does not belong to you")
	errPartialOwnership = dErrors.New(dErrors.CodeForbidden,
		"some records do not exist or do not belong to you")
)
