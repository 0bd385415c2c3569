package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/healthbridge/claims-reporter/pkg/requestid"
)

// RequestID takes the request ID from the x-request-id header, falling back
// to chi's generated ID or a fresh UUID, and injects it into the request
// context so the rest of the stack reads it through the requestid package.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
