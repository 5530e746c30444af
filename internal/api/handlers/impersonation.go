package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/impersonation"
)

type ImpersonationHandler struct {
	svc *impersonation.Service
}

func NewImpersonationHandler(svc *impersonation.Service) *ImpersonationHandler {
	return &ImpersonationHandler{svc: svc}
}

type startImpersonationRequest struct {
	TargetUserID string `json:"target_user_id"`
	Reason       string `json:"reason"`
}

func (h *ImpersonationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startImpersonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	targetID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target user ID")
		return
	}

	token, sess, err := h.svc.Start(r.Context(), targetID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, impersonation.ErrNotPlatform), errors.Is(err, impersonation.ErrNotPermitted):
			writeError(w, http.StatusForbidden, "access denied")
		case errors.Is(err, impersonation.ErrReasonRequired):
			writeError(w, http.StatusBadRequest, "reason is required")
		case errors.Is(err, impersonation.ErrTargetInactive):
			writeError(w, http.StatusConflict, "target account is inactive")
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "target user not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"session": sess,
	})
}

// Stop ends the session the request is acting under. Called with the
// impersonation token itself, not the operator's own credential.
func (h *ImpersonationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Stop(r.Context()); err != nil {
		if errors.Is(err, impersonation.ErrNoActiveSession) {
			writeError(w, http.StatusConflict, "no active impersonation session")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
