package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
)

func TestRateLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Limit(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

// Two principals behind one address get independent buckets; the anonymous
// bucket for the address is separate again.
func TestRateLimitKeysByPrincipal(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Limit(okHandler())

	addr := "10.0.0.1:1234"
	for _, userID := range []uuid.UUID{uuid.New(), uuid.New()} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{
			UserID: userID, Scope: auth.ScopeFacility, TenantID: uuid.New(),
		}))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("user %s: expected own bucket, got %d", userID, rr.Code)
		}
	}

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	anon.RemoteAddr = addr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, anon)
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous bucket must be independent, got %d", rr.Code)
	}
}
