package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/metrics"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

type AuthHandler struct {
	svc      *auth.Service
	auditSvc *audit.Service
}

func NewAuthHandler(svc *auth.Service, auditSvc *audit.Service) *AuthHandler {
	return &AuthHandler{svc: svc, auditSvc: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginFacility authenticates a facility user. The tenant comes from the
// resolved tenant context (the tenant header on this unauthenticated route),
// never from the request body.
func (h *AuthHandler) LoginFacility(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "tenant is required")
		return
	}

	token, user, err := h.svc.LoginFacility(r.Context(), tenantID, req.Email, req.Password, clientIP(r))
	if err != nil {
		h.loginFailed(r, "facility", req.Email, err)
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrTenantRequired) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	metrics.Logins.WithLabelValues("facility", "success").Inc()
	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "login.succeeded",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details:      map[string]any{"scope": "facility", "email": user.Email},
		IPAddress:    clientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// LoginPlatform authenticates an internal operator. No tenant involved.
func (h *AuthHandler) LoginPlatform(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.svc.LoginPlatform(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		h.loginFailed(r, "platform", req.Email, err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	metrics.Logins.WithLabelValues("platform", "success").Inc()
	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "login.succeeded",
		ResourceType: "platform_user",
		ResourceID:   &user.ID,
		Details:      map[string]any{"scope": "platform", "email": user.Email},
		IPAddress:    clientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// Me echoes the authenticated principal, including the acting operator when
// the request runs under impersonation.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp := map[string]interface{}{
		"user_id": p.UserID,
		"email":   p.Email,
		"scope":   p.Scope,
	}
	if p.Scope == auth.ScopeFacility {
		resp["tenant_id"] = p.TenantID
		resp["tenant_role"] = p.TenantRole
	} else {
		resp["platform_role"] = p.PlatformRole
	}
	if p.Impersonation != nil {
		resp["impersonated_by"] = map[string]interface{}{
			"user_id":    p.Impersonation.UserID,
			"email":      p.Impersonation.Email,
			"session_id": p.Impersonation.SessionID,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) loginFailed(r *http.Request, scope, email string, err error) {
	if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrTenantRequired) {
		return
	}
	metrics.Logins.WithLabelValues(scope, "failure").Inc()
	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "login.failed",
		ResourceType: "credentials",
		Details:      map[string]any{"scope": scope, "email": email},
		IPAddress:    clientIP(r),
	})
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Forwarded-For.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
