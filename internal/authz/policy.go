package authz

import (
	"sort"
	"strings"
	"sync"

	"github.com/karimhaddad/clubcore/internal/auth"
)

// Policy declares what an operation requires from the caller. Zero value
// requires authentication only. Roles and Permissions are conjunctive when
// both are set; an empty Roles slice with Platform=true admits any platform
// principal that passes the permission check.
type Policy struct {
	// Platform requires platform scope. Facility principals are rejected
	// unconditionally, whatever their tenant role is named.
	Platform bool

	// Roles restricts to a subset of platform roles. Empty = any role.
	Roles []auth.PlatformRole

	// Permissions that the caller's role must all grant. Empty = no
	// permission check.
	Permissions []Permission
}

// Registry holds the policy attached to each named operation so audit
// tooling can inspect the full access surface without executing anything.
// Operation names are dot-separated (`platform.config.edit`); a policy
// registered for a prefix acts as the group default, and the most specific
// registration wins.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register attaches a policy to an operation or operation-group name.
// Called once during route construction.
func (r *Registry) Register(op string, p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[op] = p
}

// Resolve returns the policy governing op: an exact match if present,
// otherwise the longest registered prefix (group default). The second
// return is false when nothing applies.
func (r *Registry) Resolve(op string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.policies[op]; ok {
		return p, true
	}
	for candidate := op; ; {
		i := strings.LastIndex(candidate, ".")
		if i < 0 {
			return Policy{}, false
		}
		candidate = candidate[:i]
		if p, ok := r.policies[candidate]; ok {
			return p, true
		}
	}
}

// Snapshot returns all registered operations in sorted order, for
// documentation and audit tooling.
func (r *Registry) Snapshot() map[string]Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Policy, len(r.policies))
	for k, v := range r.policies {
		out[k] = v
	}
	return out
}

// Operations lists registered operation names, sorted.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]string, 0, len(r.policies))
	for k := range r.policies {
		ops = append(ops, k)
	}
	sort.Strings(ops)
	return ops
}
