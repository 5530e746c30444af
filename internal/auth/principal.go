// Package auth resolves request credentials into principals and issues the
// tokens the rest of the system trusts. A principal is either facility-scoped
// (bound to one tenant) or platform-scoped (internal operators); the two are
// mutually exclusive and nothing here will upgrade one into the other.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrSessionRevoked     = errors.New("auth: impersonation session no longer active")
)

type Scope string

const (
	ScopeFacility Scope = "facility"
	ScopePlatform Scope = "platform"
)

// PlatformRole is the closed set of internal operator roles. Roles carry no
// implicit hierarchy; capabilities come from the permission table only.
type PlatformRole string

const (
	RoleSuperAdmin   PlatformRole = "super-admin"
	RoleAdmin        PlatformRole = "admin"
	RoleSupportLead  PlatformRole = "support-lead"
	RoleSupportAgent PlatformRole = "support-agent"
	RoleViewer       PlatformRole = "viewer"
	RoleSalesRep     PlatformRole = "sales-rep"
)

var platformRoles = map[PlatformRole]struct{}{
	RoleSuperAdmin:   {},
	RoleAdmin:        {},
	RoleSupportLead:  {},
	RoleSupportAgent: {},
	RoleViewer:       {},
	RoleSalesRep:     {},
}

// ValidPlatformRole reports whether r is a defined platform role.
func ValidPlatformRole(r PlatformRole) bool {
	_, ok := platformRoles[r]
	return ok
}

// Actor identifies the originating platform principal behind an impersonated
// request. It exists purely for accountability: business data attribution
// uses the impersonated principal, audit attribution uses both.
type Actor struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Email     string
}

// Principal is the authenticated identity for the current request.
// TenantID and TenantRole are set iff Scope is facility; PlatformRole is set
// iff Scope is platform.
type Principal struct {
	UserID       uuid.UUID
	Email        string
	Scope        Scope
	TenantID     uuid.UUID
	TenantRole   string
	PlatformRole PlatformRole

	// Impersonation is non-nil while a platform operator acts as this
	// facility principal.
	Impersonation *Actor
}

// IsPlatform reports whether the principal operates with platform scope.
func (p Principal) IsPlatform() bool { return p.Scope == ScopePlatform }

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &p)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
