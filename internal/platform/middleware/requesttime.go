package middleware

import (
	"net/http"
	"time"

	"gather/pkg/requestcontext"
)

// RequestTime pins one timestamp per request so every write in a handler
// shares it.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
