package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/models"
)

// ErrUserNotFound is returned by stores for unknown or inactive accounts.
var ErrUserNotFound = errors.New("auth: user not found")

// UserStore loads the accounts credentials resolve to. Facility lookups are
// tenant-qualified; platform lookups are global by construction.
type UserStore interface {
	FacilityUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error)
	FacilityUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	PlatformUserByEmail(ctx context.Context, email string) (*models.PlatformUser, error)
	PlatformUserByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error)
}
