// Package isolation constrains data access to the current tenant.
//
// Every read declares its scope explicitly at the call site via a ReadScope
// tag — behavior is never inferred from how an operation happens to be
// named. Writes are deliberately not auto-filtered: predicate injection on
// upsert-style writes produces duplicate rows under merge semantics, so
// every mutation must stamp the tenant id itself via StampTenant. A mutation
// that skips the stamp is not caught here; tests over each mutation path are
// the guard.
package isolation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/tenant"
)

var (
	// ErrTenantRequired means an operation that must be tenant-scoped ran
	// with an empty tenant context. Always a deny, never a wildcard.
	ErrTenantRequired = errors.New("isolation: tenant context required")

	// ErrUnknownScope means a read carried no recognizable scope tag.
	// Fail closed rather than guess.
	ErrUnknownScope = errors.New("isolation: unknown read scope")
)

// ReadScope tags a read-style operation with its isolation behavior.
type ReadScope int

const (
	// TenantScoped reads are constrained to the current tenant and fail
	// when the context holds none.
	TenantScoped ReadScope = iota

	// TenantOptional reads are constrained when a tenant is present and
	// run unconstrained otherwise. The unconstrained case is the explicit
	// escape hatch for platform-scope cross-tenant reads, not a bug.
	TenantOptional

	// Unscoped reads are never constrained. Reserved for data that has no
	// tenant column (platform configuration, the tenant table itself).
	Unscoped
)

// Filter returns a SQL predicate and its arguments enforcing scope over the
// given tenant column. argIdx is the 1-based index the first argument should
// bind to. The predicate is always safe to AND into a WHERE clause.
func Filter(ctx context.Context, scope ReadScope, column string, argIdx int) (string, []any, error) {
	switch scope {
	case TenantScoped:
		id, ok := tenant.FromContext(ctx)
		if !ok {
			return "", nil, ErrTenantRequired
		}
		return fmt.Sprintf("%s = $%d", column, argIdx), []any{id}, nil
	case TenantOptional:
		id, ok := tenant.FromContext(ctx)
		if !ok {
			return "TRUE", nil, nil
		}
		return fmt.Sprintf("%s = $%d", column, argIdx), []any{id}, nil
	case Unscoped:
		return "TRUE", nil, nil
	default:
		return "", nil, ErrUnknownScope
	}
}

// StampTenant returns the tenant id every mutation must write into its rows.
// Empty context is an error: writes have no unconstrained mode.
func StampTenant(ctx context.Context) (uuid.UUID, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return uuid.Nil, ErrTenantRequired
	}
	return id, nil
}

// Owns reports whether the current tenant owns a row carrying rowTenant.
// Used as a second check after primary-key loads, so a guessed id from
// another tenant reads as not-found.
func Owns(ctx context.Context, rowTenant uuid.UUID) bool {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return false
	}
	return id == rowTenant
}
