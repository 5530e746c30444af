package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SessionChecker reports whether an impersonation session is still active.
// Implemented by the impersonation service; injected here so a stopped or
// expired session invalidates its token immediately.
type SessionChecker interface {
	Active(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// Authenticator turns bearer tokens into principals. Requests without a
// usable credential pass through unauthenticated; the access enforcer decides
// later whether that is acceptable for the target operation. A present but
// invalid credential is rejected outright.
type Authenticator struct {
	issuer   *Issuer
	sessions SessionChecker
}

func NewAuthenticator(issuer *Issuer, sessions SessionChecker) *Authenticator {
	return &Authenticator{issuer: issuer, sessions: sessions}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := a.issuer.ParseAndValidate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if p.Impersonation != nil {
			if a.sessions == nil {
				// Fail closed: impersonation tokens are unusable when the
				// session store is unavailable.
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			active, err := a.sessions.Active(r.Context(), p.Impersonation.SessionID)
			if err != nil || !active {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), *p)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
