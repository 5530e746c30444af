package tenant

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
)

// Resolver determines the tenant for each inbound request and installs it on
// the request context. Resolution order is fixed and documented:
//
//  1. a facility-scoped principal's tenant claim — authoritative, a header
//     can never point a facility user at another tenant;
//  2. the explicit tenant header, honored for unauthenticated requests
//     (login, public endpoints) and for platform principals targeting a
//     specific tenant;
//  3. none — the context stays empty, which is a valid state for public and
//     cross-tenant platform endpoints.
//
// Malformed identifiers are treated as absent rather than rejected; endpoints
// that need a tenant fail closed downstream. Must run after
// auth.Authenticator so the claim lookup sees the resolved principal.
type Resolver struct {
	header string
}

func NewResolver(header string) *Resolver {
	if header == "" {
		header = "X-Tenant-ID"
	}
	return &Resolver{header: header}
}

func (rs *Resolver) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if p, ok := auth.PrincipalFromContext(ctx); ok && p.Scope == auth.ScopeFacility {
			next.ServeHTTP(w, r.WithContext(WithID(ctx, p.TenantID)))
			return
		}

		if raw := r.Header.Get(rs.header); raw != "" {
			if id, err := uuid.Parse(raw); err == nil && id != uuid.Nil {
				next.ServeHTTP(w, r.WithContext(WithID(ctx, id)))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
