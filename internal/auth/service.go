package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/cache"
	"github.com/karimhaddad/clubcore/internal/models"
)

// ErrTenantRequired is returned when a facility login arrives without a
// resolved tenant. Logins never guess a tenant.
var ErrTenantRequired = errors.New("auth: tenant context required")

const (
	failedLoginWindow    = 15 * time.Minute
	failedLoginThreshold = 5
)

// AnomalySink receives suspicious-activity signals from the login path.
// Implemented by the security alert ledger.
type AnomalySink interface {
	RepeatedLoginFailures(ctx context.Context, tenantID, ownerID uuid.UUID, email, sourceIP string, failures int64)
}

// Service implements credential verification and token issuance for both
// principal classes.
type Service struct {
	users    UserStore
	issuer   *Issuer
	counters *cache.Cache
	anomaly  AnomalySink
}

func NewService(users UserStore, issuer *Issuer, counters *cache.Cache, anomaly AnomalySink) *Service {
	return &Service{users: users, issuer: issuer, counters: counters, anomaly: anomaly}
}

// LoginFacility verifies a facility user's credentials within the given
// tenant and returns a signed facility token. tenantID must come from the
// resolved tenant context of the request.
func (s *Service) LoginFacility(ctx context.Context, tenantID uuid.UUID, email, password, sourceIP string) (string, *models.User, error) {
	if tenantID == uuid.Nil {
		return "", nil, ErrTenantRequired
	}

	user, err := s.users.FacilityUserByEmail(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same failure path as a bad password: no account enumeration.
			s.recordFailure(ctx, tenantID, uuid.Nil, email, sourceIP)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Active || !VerifyPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, tenantID, user.ID, email, sourceIP)
		return "", nil, ErrInvalidCredentials
	}

	s.resetFailures(ctx, tenantID, email)

	token, err := s.issuer.IssueFacility(user.ID, user.TenantID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// LoginPlatform verifies an internal operator's credentials. Platform logins
// are tenant-free by definition.
func (s *Service) LoginPlatform(ctx context.Context, email, password, sourceIP string) (string, *models.PlatformUser, error) {
	user, err := s.users.PlatformUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.recordFailure(ctx, uuid.Nil, uuid.Nil, email, sourceIP)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Active || !VerifyPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, uuid.Nil, user.ID, email, sourceIP)
		return "", nil, ErrInvalidCredentials
	}

	s.resetFailures(ctx, uuid.Nil, email)

	token, err := s.issuer.IssuePlatform(user.ID, user.Email, PlatformRole(user.Role))
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) recordFailure(ctx context.Context, tenantID, ownerID uuid.UUID, email, sourceIP string) {
	if s.counters == nil {
		return
	}
	n, err := s.counters.IncrementWithTTL(ctx, failedLoginKey(tenantID, email), failedLoginWindow)
	if err != nil {
		slog.Warn("failed-login counter unavailable", "error", err)
		return
	}
	if n == failedLoginThreshold && s.anomaly != nil && ownerID != uuid.Nil {
		s.anomaly.RepeatedLoginFailures(ctx, tenantID, ownerID, email, sourceIP, n)
	}
}

func (s *Service) resetFailures(ctx context.Context, tenantID uuid.UUID, email string) {
	if s.counters == nil {
		return
	}
	if err := s.counters.Delete(ctx, failedLoginKey(tenantID, email)); err != nil {
		slog.Warn("failed-login counter reset failed", "error", err)
	}
}

func failedLoginKey(tenantID uuid.UUID, email string) string {
	return fmt.Sprintf("login:fail:%s:%s", tenantID, email)
}
