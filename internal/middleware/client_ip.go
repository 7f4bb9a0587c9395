package middleware

import (
	"net/http"

	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
)

// ClientIP resolves the caller address once per request and stores it in
// the context for rate limiting and audit logging.
func ClientIP(config *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, config)
			next.ServeHTTP(w, r.WithContext(pkglogger.WithClientIP(r.Context(), ip)))
		})
	}
}

// clientIPOf returns the address stored by ClientIP, or the raw peer address.
func clientIPOf(r *http.Request) string {
	if ip := pkglogger.ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return pkghttp.ExtractClientIP(r, nil)
}
