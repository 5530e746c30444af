// Package authz gates operations on declared access policies. Permissions
// are the source of truth; platform roles are named permission bundles with
// no implicit hierarchy.
package authz

import (
	"github.com/karimhaddad/clubcore/internal/auth"
)

type Permission string

const (
	PermConfigView        Permission = "config:view"
	PermConfigEdit        Permission = "config:edit"
	PermMaintenanceManage Permission = "maintenance:manage"
	PermFeatureFlagManage Permission = "feature-flags:manage"
	PermTenantsView       Permission = "tenants:view"
	PermTenantsManage     Permission = "tenants:manage"
	PermImpersonateUser   Permission = "impersonate:user"
	PermAuditView         Permission = "audit:view"
)

// rolePermissions is the static role → permission bundle table, built once
// and never mutated at runtime. Concurrent reads are safe without locking.
var rolePermissions = map[auth.PlatformRole][]Permission{
	auth.RoleSuperAdmin: {
		PermConfigView, PermConfigEdit,
		PermMaintenanceManage, PermFeatureFlagManage,
		PermTenantsView, PermTenantsManage,
		PermImpersonateUser, PermAuditView,
	},
	auth.RoleAdmin: {
		PermConfigView, PermConfigEdit,
		PermMaintenanceManage, PermFeatureFlagManage,
		PermTenantsView, PermTenantsManage,
		PermAuditView,
	},
	auth.RoleSupportLead: {
		PermConfigView,
		PermTenantsView,
		PermImpersonateUser, PermAuditView,
	},
	auth.RoleSupportAgent: {
		PermConfigView,
		PermTenantsView,
	},
	auth.RoleViewer: {
		PermConfigView,
		PermTenantsView,
	},
	auth.RoleSalesRep: {
		PermTenantsView,
	},
}

// PermissionsFor returns the permission set granted to role. Unknown roles
// map to the empty set, never an error: deny-by-default.
func PermissionsFor(role auth.PlatformRole) map[Permission]struct{} {
	perms := rolePermissions[role]
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// HasPermission reports whether role grants perm.
func HasPermission(role auth.PlatformRole, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
