package impersonation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/authz"
	"github.com/karimhaddad/clubcore/internal/metrics"
)

var (
	ErrNotPlatform     = errors.New("impersonation: platform principal required")
	ErrNotPermitted    = errors.New("impersonation: permission denied")
	ErrReasonRequired  = errors.New("impersonation: reason is required")
	ErrTargetInactive  = errors.New("impersonation: target account is inactive")
	ErrNoActiveSession = errors.New("impersonation: no active session")
)

// Auditor records session lifecycle events.
type Auditor interface {
	ImpersonationStarted(ctx context.Context, s Session)
	ImpersonationStopped(ctx context.Context, s Session)
}

type Service struct {
	store  SessionStore
	users  auth.UserStore
	issuer *auth.Issuer
	audit  Auditor
	ttl    time.Duration
}

func NewService(store SessionStore, users auth.UserStore, issuer *auth.Issuer, audit Auditor, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{store: store, users: users, issuer: issuer, audit: audit, ttl: ttl}
}

// Start opens a session acting as the target facility user. The caller must
// be a platform principal holding the impersonate permission — the route
// enforces this too, but the service re-checks and fails closed. The session
// duration is fixed; extending requires an explicit new session.
func (s *Service) Start(ctx context.Context, targetUserID uuid.UUID, reason string) (string, *Session, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.Scope != auth.ScopePlatform {
		return "", nil, ErrNotPlatform
	}
	if !authz.HasPermission(p.PlatformRole, authz.PermImpersonateUser) {
		return "", nil, ErrNotPermitted
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", nil, ErrReasonRequired
	}

	target, err := s.users.FacilityUserByID(ctx, targetUserID)
	if err != nil {
		return "", nil, fmt.Errorf("load target user: %w", err)
	}
	if !target.Active {
		return "", nil, ErrTargetInactive
	}

	now := time.Now().UTC()
	sess := Session{
		ID:           uuid.New(),
		ActorID:      p.UserID,
		ActorEmail:   p.Email,
		TargetUserID: target.ID,
		TargetEmail:  target.Email,
		TenantID:     target.TenantID,
		Reason:       reason,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.ttl),
	}

	token, err := s.issuer.IssueImpersonation(
		auth.Principal{
			UserID:     target.ID,
			Email:      target.Email,
			Scope:      auth.ScopeFacility,
			TenantID:   target.TenantID,
			TenantRole: target.Role,
		},
		auth.ActClaim{
			SessionID: sess.ID.String(),
			UserID:    p.UserID.String(),
			Email:     p.Email,
		},
		s.ttl,
	)
	if err != nil {
		return "", nil, err
	}

	if err := s.store.Put(ctx, sess, s.ttl); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	metrics.ImpersonationSessions.WithLabelValues("started").Inc()
	if s.audit != nil {
		s.audit.ImpersonationStarted(ctx, sess)
	}
	return token, &sess, nil
}

// Stop ends the session the current request is acting under. The remaining
// lifetime is discarded; the operator's own credential simply resumes. Stop
// on an already-ended session reports ErrNoActiveSession.
func (s *Service) Stop(ctx context.Context) error {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.Impersonation == nil {
		return ErrNoActiveSession
	}

	sess, err := s.store.Get(ctx, p.Impersonation.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return ErrNoActiveSession
	}
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	metrics.ImpersonationSessions.WithLabelValues("stopped").Inc()
	if s.audit != nil {
		s.audit.ImpersonationStopped(ctx, *sess)
	}
	return nil
}

// Active reports whether a session still exists. Store errors propagate so
// the authenticator fails closed instead of honoring an unverifiable token.
func (s *Service) Active(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	_, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
