package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/platform"
)

type staticStatus struct {
	m platform.Maintenance
}

func (s *staticStatus) MaintenanceStatus(ctx context.Context) platform.Maintenance {
	return s.m
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMaintenanceOffPassesEveryone(t *testing.T) {
	h := Maintenance(&staticStatus{})(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/members", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMaintenanceBlocksFacilityTraffic(t *testing.T) {
	h := Maintenance(&staticStatus{m: platform.Maintenance{Enabled: true, Message: "upgrading"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{
		UserID: uuid.New(), Scope: auth.ScopeFacility, TenantID: uuid.New(),
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestMaintenanceAdmitsPlatformOperators(t *testing.T) {
	h := Maintenance(&staticStatus{m: platform.Maintenance{Enabled: true}})(okHandler())

	req := httptest.NewRequest(http.MethodPut, "/platform/maintenance", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{
		UserID: uuid.New(), Scope: auth.ScopePlatform, PlatformRole: auth.RoleAdmin,
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("operators must reach the switch, got %d", rr.Code)
	}
}
