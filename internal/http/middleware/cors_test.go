package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsRequest(method, origin string, preflight bool) *http.Request {
	req := httptest.NewRequest(method, "/api/sessions", nil)
	req.Header.Set("Origin", origin)
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	}
	return req
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	CORS([]string{" https://chat.example.com "})(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodPost, "https://chat.example.com", false))

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://chat.example.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Request-Id" && got != "X-Request-ID" {
		t.Fatalf("expected request id to be exposed, got %q", got)
	}
}

func TestCORSDeniesUnknownOrigin(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	CORS([]string{"https://chat.example.com"})(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodGet, "https://unknown.example", false))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin header, got %q", got)
	}
	if !called {
		t.Fatalf("expected handler to run for a simple request")
	}
}

func TestCORSWildcardSubdomain(t *testing.T) {
	called := false
	mw := CORS([]string{"https://*.clinic.example"})

	rec := httptest.NewRecorder()
	mw(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodGet, "https://north.clinic.example", false))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://north.clinic.example" {
		t.Fatalf("expected subdomain to be allowed, got %q", got)
	}

	rec = httptest.NewRecorder()
	mw(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodGet, "https://clinic.example.evil", false))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected lookalike origin to be denied, got %q", got)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	CORS([]string{"*"})(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodGet, "https://random.example", false))

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected allow origin header for wildcard config")
	}
}

func TestCORSHandlesPreflight(t *testing.T) {
	called := false
	rec := httptest.NewRecorder()
	CORS([]string{"https://chat.example.com"})(okHandler(&called)).ServeHTTP(rec, corsRequest(http.MethodOptions, "https://chat.example.com", true))

	if called {
		t.Fatalf("expected handler to not be called on preflight")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPost) {
		t.Fatalf("expected POST in allowed methods, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected max age 600, got %q", got)
	}
}
