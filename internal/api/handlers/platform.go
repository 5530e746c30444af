package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/models"
	"github.com/karimhaddad/clubcore/internal/platform"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

// PlatformHandler serves the operator console: global config, feature flags,
// maintenance mode, tenant management and the audit trail.
type PlatformHandler struct {
	svc       *platform.Service
	tenantSvc *tenant.Service
	auditSvc  *audit.Service
}

func NewPlatformHandler(svc *platform.Service, tenantSvc *tenant.Service, auditSvc *audit.Service) *PlatformHandler {
	return &PlatformHandler{svc: svc, tenantSvc: tenantSvc, auditSvc: auditSvc}
}

func (h *PlatformHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

type setSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *PlatformHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req setSettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := h.svc.SetSetting(r.Context(), key, req.Value)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "config.updated",
		ResourceType: "platform_setting",
		Details:      map[string]any{"key": st.Key},
	})
	writeJSON(w, http.StatusOK, st)
}

func (h *PlatformHandler) FeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.svc.FeatureFlags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flags": flags})
}

type setFlagRequest struct {
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

func (h *PlatformHandler) SetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req setFlagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.svc.SetFeatureFlag(r.Context(), key, req.Enabled, req.Description)
	if err != nil {
		if errors.Is(err, platform.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "feature_flag.updated",
		ResourceType: "feature_flag",
		Details:      map[string]any{"key": f.Key, "enabled": f.Enabled},
	})
	writeJSON(w, http.StatusOK, f)
}

func (h *PlatformHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.MaintenanceStatus(r.Context()))
}

func (h *PlatformHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req platform.Maintenance
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.SetMaintenance(r.Context(), req); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "maintenance.updated",
		ResourceType: "platform",
		Details:      map[string]any{"enabled": req.Enabled, "message": req.Message},
	})
	writeJSON(w, http.StatusOK, req)
}

func (h *PlatformHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tenants, err := h.tenantSvc.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": tenants, "count": len(tenants)})
}

type createTenantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *PlatformHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}

	t, err := h.tenantSvc.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "tenant.created",
		ResourceType: "tenant",
		ResourceID:   &t.ID,
		Details:      map[string]any{"name": t.Name, "slug": t.Slug},
	})
	writeJSON(w, http.StatusCreated, t)
}

func (h *PlatformHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	t, err := h.tenantSvc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type setTenantStatusRequest struct {
	Status models.TenantStatus `json:"status"`
}

func (h *PlatformHandler) SetTenantStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	var req setTenantStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	switch req.Status {
	case models.TenantActive, models.TenantSuspended, models.TenantArchived:
	default:
		writeError(w, http.StatusBadRequest, "invalid tenant status")
		return
	}

	if err := h.tenantSvc.SetStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}

	h.auditSvc.Log(r.Context(), audit.Entry{
		Action:       "tenant.status_changed",
		ResourceType: "tenant",
		ResourceID:   &id,
		Details:      map[string]any{"status": req.Status},
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": req.Status})
}

// AuditLogs lists the trail. Scope comes from the tenant context: platform
// callers see everything by default and can narrow with the tenant header.
func (h *PlatformHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	q := audit.Query{
		Action: r.URL.Query().Get("action"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		q.StartDate = &t
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		q.EndDate = &t
	}

	logs, err := h.auditSvc.List(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs, "count": len(logs)})
}
