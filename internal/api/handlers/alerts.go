package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/alerts"
	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
)

// AlertHandler exposes the self-service alert surface: an identity sees and
// resolves its own alerts only. The platform-side view goes through the
// audit endpoints instead.
type AlertHandler struct {
	svc      *alerts.Service
	auditSvc *audit.Service
}

func NewAlertHandler(svc *alerts.Service, auditSvc *audit.Service) *AlertHandler {
	return &AlertHandler{svc: svc, auditSvc: auditSvc}
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var resolution *models.AlertResolution
	if raw := r.URL.Query().Get("resolution"); raw != "" {
		res := models.AlertResolution(raw)
		switch res {
		case models.AlertUnresolved, models.AlertAcknowledged, models.AlertDismissed:
			resolution = &res
		default:
			writeError(w, http.StatusBadRequest, "invalid resolution filter")
			return
		}
	}

	list, err := h.svc.List(r.Context(), p.UserID, resolution, limit, offset)
	if err != nil {
		writeAlertError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": list, "count": len(list)})
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "alert.acknowledged", h.svc.Acknowledge)
}

func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, "alert.dismissed", h.svc.Dismiss)
}

func (h *AlertHandler) resolve(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, alertID, byIdentity uuid.UUID) (*models.SecurityAlert, error)) {

	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	alertID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert ID")
		return
	}

	a, err := fn(r.Context(), alertID, p.UserID)
	if err != nil {
		writeAlertError(w, err)
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       action,
		ResourceType: "security_alert",
		ResourceID:   &a.ID,
		Details:      map[string]any{"type": a.Type, "severity": a.Severity},
	})

	writeJSON(w, http.StatusOK, a)
}

func writeAlertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		writeError(w, http.StatusNotFound, "alert not found")
	case errors.Is(err, alerts.ErrOwnership):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, alerts.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "alert already resolved")
	case errors.Is(err, isolation.ErrTenantRequired):
		writeError(w, http.StatusForbidden, "access denied")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
