package middleware

import (
	"context"
	"net/http"

	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/auth"
)

// AuditTrail records request-level audit entries. Implemented by the audit
// service.
type AuditTrail interface {
	Log(ctx context.Context, entry audit.Entry)
}

// ImpersonationAudit writes one trail entry for every request carried out
// under an active impersonation session, before the handler runs. Individual
// handlers audit their own domain events, but only the ones that mutate
// security-relevant state do; this middleware guarantees that no operation
// performed as someone else goes unrecorded, whatever the route. The trail
// attributes each entry to both identities from the principal.
func ImpersonationAudit(trail AuditTrail) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, ok := auth.PrincipalFromContext(r.Context()); ok && p.Impersonation != nil {
				trail.Log(r.Context(), audit.Entry{
					Action:       "impersonation.request",
					ResourceType: "http_request",
					Details: map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					},
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
