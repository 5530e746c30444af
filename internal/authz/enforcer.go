package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/metrics"
)

// Denial reasons, written to the audit trail. Callers only ever see a
// generic unauthorized/forbidden response.
const (
	ReasonUnauthenticated    = "authentication required"
	ReasonScopeMismatch      = "platform access required"
	ReasonRoleMissing        = "platform role required"
	ReasonInsufficientRole   = "insufficient role"
	ReasonMissingPermissions = "missing permissions"
	ReasonMisconfigured      = "misconfigured policy"
)

// Denial describes why access was refused. It is an error so service-level
// checks can propagate it, but its detail must never reach the caller.
type Denial struct {
	Reason  string
	Missing []Permission
}

func (d *Denial) Error() string {
	if len(d.Missing) == 0 {
		return "authz: " + d.Reason
	}
	parts := make([]string, len(d.Missing))
	for i, p := range d.Missing {
		parts[i] = string(p)
	}
	return fmt.Sprintf("authz: %s: [%s]", d.Reason, strings.Join(parts, ", "))
}

// Check evaluates policy against the principal. Checks run in a fixed order
// and short-circuit on the first failure; any ambiguity denies.
func Check(p *auth.Principal, policy Policy) *Denial {
	if p == nil {
		return &Denial{Reason: ReasonUnauthenticated}
	}

	// Roles and permissions are platform constructs; a policy declaring them
	// without platform scope is contradictory and denies everyone rather
	// than silently skipping the constraints.
	if !policy.Platform && (len(policy.Roles) > 0 || len(policy.Permissions) > 0) {
		return &Denial{Reason: ReasonMisconfigured}
	}

	if policy.Platform {
		// Unconditional: a facility principal never passes a platform
		// gate, regardless of how its tenant role happens to be named.
		if p.Scope != auth.ScopePlatform {
			return &Denial{Reason: ReasonScopeMismatch}
		}
		if p.PlatformRole == "" {
			return &Denial{Reason: ReasonRoleMissing}
		}
		if len(policy.Roles) > 0 {
			allowed := false
			for _, r := range policy.Roles {
				if p.PlatformRole == r {
					allowed = true
					break
				}
			}
			if !allowed {
				return &Denial{Reason: ReasonInsufficientRole}
			}
		}
		if len(policy.Permissions) > 0 {
			granted := PermissionsFor(p.PlatformRole)
			var missing []Permission
			for _, perm := range policy.Permissions {
				if _, ok := granted[perm]; !ok {
					missing = append(missing, perm)
				}
			}
			if len(missing) > 0 {
				return &Denial{Reason: ReasonMissingPermissions, Missing: missing}
			}
		}
	}

	return nil
}

// AuditSink records denials for operators. The full reason goes here and to
// the structured log, never to the HTTP response.
type AuditSink interface {
	AccessDenied(ctx context.Context, op, reason string, missing []string)
}

// Enforcer wraps gated operations in policy checks. Policies are registered
// at construction time so the registry reflects the live routing table.
type Enforcer struct {
	registry *Registry
	audit    AuditSink
}

func NewEnforcer(registry *Registry, audit AuditSink) *Enforcer {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Enforcer{registry: registry, audit: audit}
}

func (e *Enforcer) Registry() *Registry { return e.registry }

// Require registers the policy for op and returns middleware enforcing it.
func (e *Enforcer) Require(op string, policy Policy) func(http.Handler) http.Handler {
	e.registry.Register(op, policy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var principal *auth.Principal
			if p, ok := auth.PrincipalFromContext(r.Context()); ok {
				principal = &p
			}

			if denial := Check(principal, policy); denial != nil {
				e.deny(r.Context(), w, op, principal, denial)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireGroup registers a group-default policy without attaching
// middleware; fine-grained Require calls under the same prefix override it.
func (e *Enforcer) RequireGroup(prefix string, policy Policy) {
	e.registry.Register(prefix, policy)
}

func (e *Enforcer) deny(ctx context.Context, w http.ResponseWriter, op string, p *auth.Principal, d *Denial) {
	metrics.AccessDenials.WithLabelValues(d.Reason).Inc()

	missing := make([]string, len(d.Missing))
	for i, perm := range d.Missing {
		missing[i] = string(perm)
	}

	attrs := []any{"op", op, "reason", d.Reason}
	if p != nil {
		attrs = append(attrs, "user_id", p.UserID, "scope", p.Scope)
	}
	if len(missing) > 0 {
		attrs = append(attrs, "missing", missing)
	}
	slog.Warn("access denied", attrs...)

	if e.audit != nil {
		e.audit.AccessDenied(ctx, op, d.Reason, missing)
	}

	// The caller learns nothing beyond the status class.
	if d.Reason == ReasonUnauthenticated {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeError(w, http.StatusForbidden, "access denied")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
