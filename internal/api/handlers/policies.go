package handlers

import (
	"net/http"

	"github.com/karimhaddad/clubcore/internal/authz"
)

// PolicyHandler exposes the live access-policy registry so security reviews
// can see the whole gated surface without reading route code.
type PolicyHandler struct {
	registry *authz.Registry
}

func NewPolicyHandler(registry *authz.Registry) *PolicyHandler {
	return &PolicyHandler{registry: registry}
}

func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshot := h.registry.Snapshot()

	type entry struct {
		Operation   string   `json:"operation"`
		Platform    bool     `json:"platform"`
		Roles       []string `json:"roles,omitempty"`
		Permissions []string `json:"permissions,omitempty"`
	}

	ops := h.registry.Operations()
	out := make([]entry, 0, len(ops))
	for _, op := range ops {
		p := snapshot[op]
		e := entry{Operation: op, Platform: p.Platform}
		for _, role := range p.Roles {
			e.Roles = append(e.Roles, string(role))
		}
		for _, perm := range p.Permissions {
			e.Permissions = append(e.Permissions, string(perm))
		}
		out = append(out, e)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"policies": out, "count": len(out)})
}
