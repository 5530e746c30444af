package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/models"
)

type fakeUserStore struct {
	facility map[string]*models.User // key: tenantID|email
	byID     map[uuid.UUID]*models.User
	platform map[string]*models.PlatformUser
}

func (f *fakeUserStore) FacilityUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	if u, ok := f.facility[tenantID.String()+"|"+email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) FacilityUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) PlatformUserByEmail(ctx context.Context, email string) (*models.PlatformUser, error) {
	if u, ok := f.platform[email]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) PlatformUserByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error) {
	for _, u := range f.platform {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func newLoginFixture(t *testing.T) (*Service, *models.User, *models.PlatformUser, uuid.UUID) {
	t.Helper()

	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tenantID := uuid.New()
	facility := &models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        "owner@gym.test",
		PasswordHash: hash,
		Role:         "admin",
		Active:       true,
	}
	operator := &models.PlatformUser{
		ID:           uuid.New(),
		Email:        "op@clubcore.test",
		PasswordHash: hash,
		Role:         string(RoleSupportLead),
		Active:       true,
	}

	store := &fakeUserStore{
		facility: map[string]*models.User{tenantID.String() + "|" + facility.Email: facility},
		byID:     map[uuid.UUID]*models.User{facility.ID: facility},
		platform: map[string]*models.PlatformUser{operator.Email: operator},
	}

	svc := NewService(store, newTestIssuer(), nil, nil)
	return svc, facility, operator, tenantID
}

func TestLoginFacility(t *testing.T) {
	svc, user, _, tenantID := newLoginFixture(t)

	token, got, err := svc.LoginFacility(context.Background(), tenantID, user.Email, "hunter2hunter2", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("wrong user returned")
	}

	p, err := newTestIssuer().ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if p.Scope != ScopeFacility || p.TenantID != tenantID {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestLoginFacilityRequiresTenant(t *testing.T) {
	svc, user, _, _ := newLoginFixture(t)

	_, _, err := svc.LoginFacility(context.Background(), uuid.Nil, user.Email, "hunter2hunter2", "")
	if !errors.Is(err, ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

// Unknown account, wrong password and wrong tenant all collapse into the
// same error so the login surface cannot be used to enumerate accounts.
func TestLoginFacilityFailuresAreUniform(t *testing.T) {
	svc, user, _, tenantID := newLoginFixture(t)

	cases := []struct {
		name     string
		tenantID uuid.UUID
		email    string
		password string
	}{
		{"wrong password", tenantID, user.Email, "nope"},
		{"unknown email", tenantID, "ghost@gym.test", "hunter2hunter2"},
		{"wrong tenant", uuid.New(), user.Email, "hunter2hunter2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.LoginFacility(context.Background(), tc.tenantID, tc.email, tc.password, "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginFacilityInactiveAccount(t *testing.T) {
	svc, user, _, tenantID := newLoginFixture(t)
	user.Active = false

	_, _, err := svc.LoginFacility(context.Background(), tenantID, user.Email, "hunter2hunter2", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginPlatform(t *testing.T) {
	svc, _, operator, _ := newLoginFixture(t)

	token, got, err := svc.LoginPlatform(context.Background(), operator.Email, "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != operator.ID {
		t.Fatalf("wrong user returned")
	}

	p, err := newTestIssuer().ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if p.Scope != ScopePlatform || p.PlatformRole != RoleSupportLead {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if p.TenantID != uuid.Nil {
		t.Fatalf("platform token must carry no tenant")
	}
}

func TestLoginPlatformBadCredentials(t *testing.T) {
	svc, _, operator, _ := newLoginFixture(t)

	_, _, err := svc.LoginPlatform(context.Background(), operator.Email, "nope", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
