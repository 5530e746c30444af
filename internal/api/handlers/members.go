package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/members"
	"github.com/karimhaddad/clubcore/internal/models"
)

type MemberHandler struct {
	svc *members.Service
}

func NewMemberHandler(svc *members.Service) *MemberHandler {
	return &MemberHandler{svc: svc}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeMemberError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": list, "count": len(list)})
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeMemberError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type createMemberRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.svc.Create(r.Context(), members.CreateInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		writeMemberError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type updateMemberRequest struct {
	Email    *string              `json:"email"`
	FullName *string              `json:"full_name"`
	Phone    *string              `json:"phone"`
	Status   *models.MemberStatus `json:"status"`
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid member ID")
		return
	}

	var req updateMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.svc.Update(r.Context(), id, members.UpdateInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Status:   req.Status,
	})
	if err != nil {
		writeMemberError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func writeMemberError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, members.ErrNotFound):
		writeError(w, http.StatusNotFound, "member not found")
	case errors.Is(err, members.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, isolation.ErrTenantRequired):
		writeError(w, http.StatusForbidden, "access denied")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
