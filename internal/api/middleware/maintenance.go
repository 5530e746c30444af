package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/platform"
)

// MaintenanceStatus reports whether the platform-wide maintenance switch is
// on. Implemented by the platform service.
type MaintenanceStatus interface {
	MaintenanceStatus(ctx context.Context) platform.Maintenance
}

// Maintenance rejects facility traffic with 503 while the switch is on.
// Platform principals pass so operators can see and lift the switch; must
// run after authentication.
func Maintenance(status MaintenanceStatus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := status.MaintenanceStatus(r.Context())
			if !m.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.IsPlatform() {
				next.ServeHTTP(w, r)
				return
			}

			msg := m.Message
			if msg == "" {
				msg = "service temporarily unavailable for maintenance"
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "300")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": msg})
		})
	}
}
