package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const clinicianTokenHeader = "X-Clinician-Token"

// requireClinicianToken guards clinician-only endpoints with a shared token.
// When expected is empty, the middleware is a no-op.
func requireClinicianToken(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(clinicianTokenHeader))
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid clinician token"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
