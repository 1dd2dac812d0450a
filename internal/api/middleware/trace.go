// Package middleware holds the HTTP middleware applied by the router:
// trace ID injection and JWT authentication.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskline/taskline-api/internal/api/shared"
)

// Trace attaches a trace ID to every request's context. Apply it first in
// the chain so all later handlers and error responses can correlate.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
