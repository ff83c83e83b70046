package middleware

import (
	"net"
	"net/http"
	"strings"

	ua "github.com/mssola/useragent"

	"gather/pkg/requestcontext"
)

// Metadata captures the client IP and a summarized user agent for the audit
// trail. Raw user-agent strings are noisy; only browser/OS facts are kept.
func Metadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), summarizeUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}

	parsed := ua.New(raw)
	name, version := parsed.Browser()
	if name == "" {
		return "unknown"
	}
	summary := name
	if version != "" {
		summary += "/" + version
	}
	if os := parsed.OS(); os != "" {
		summary += " (" + os + ")"
	}
	if parsed.Bot() {
		summary += " [bot]"
	}
	return summary
}
