package impersonation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/models"
)

type memorySessionStore struct {
	sessions map[uuid.UUID]Session
	err      error
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID]Session)}
}

func (m *memorySessionStore) Put(ctx context.Context, s Session, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	delete(m.sessions, id)
	return nil
}

type staticUserStore struct {
	user *models.User
}

func (s *staticUserStore) FacilityUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	return nil, auth.ErrUserNotFound
}

func (s *staticUserStore) FacilityUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, auth.ErrUserNotFound
}

func (s *staticUserStore) PlatformUserByEmail(ctx context.Context, email string) (*models.PlatformUser, error) {
	return nil, auth.ErrUserNotFound
}

func (s *staticUserStore) PlatformUserByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error) {
	return nil, auth.ErrUserNotFound
}

type recordingAuditor struct {
	started []Session
	stopped []Session
}

func (a *recordingAuditor) ImpersonationStarted(ctx context.Context, s Session) {
	a.started = append(a.started, s)
}

func (a *recordingAuditor) ImpersonationStopped(ctx context.Context, s Session) {
	a.stopped = append(a.stopped, s)
}

func operatorContext(role auth.PlatformRole) context.Context {
	return auth.ContextWithPrincipal(context.Background(), auth.Principal{
		UserID:       uuid.New(),
		Email:        "op@clubcore.test",
		Scope:        auth.ScopePlatform,
		PlatformRole: role,
	})
}

func newImpersonationFixture(t *testing.T) (*Service, *memorySessionStore, *recordingAuditor, *models.User, *auth.Issuer) {
	t.Helper()
	target := &models.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "owner@gym.test",
		Role:     "admin",
		Active:   true,
	}
	store := newMemorySessionStore()
	auditor := &recordingAuditor{}
	issuer := auth.NewIssuer("test-secret-please-rotate", time.Hour)
	svc := NewService(store, &staticUserStore{user: target}, issuer, auditor, 30*time.Minute)
	return svc, store, auditor, target, issuer
}

func TestStartIssuesBoundedDualIdentityToken(t *testing.T) {
	svc, store, auditor, target, issuer := newImpersonationFixture(t)
	ctx := operatorContext(auth.RoleSupportLead)

	token, sess, err := svc.Start(ctx, target.ID, "billing ticket #4417")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if sess.TargetUserID != target.ID || sess.TenantID != target.TenantID {
		t.Fatalf("session target mismatch: %+v", sess)
	}
	if sess.Reason != "billing ticket #4417" {
		t.Fatalf("reason not recorded")
	}
	if got := sess.ExpiresAt.Sub(sess.IssuedAt); got != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %v", got)
	}
	if _, ok := store.sessions[sess.ID]; !ok {
		t.Fatalf("session not persisted")
	}
	if len(auditor.started) != 1 {
		t.Fatalf("expected start audit record")
	}

	p, err := issuer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Scope != auth.ScopeFacility || p.UserID != target.ID {
		t.Fatalf("token must resolve to the target facility identity: %+v", p)
	}
	if p.Impersonation == nil || p.Impersonation.SessionID != sess.ID {
		t.Fatalf("token must name the session and actor: %+v", p.Impersonation)
	}
}

func TestStartGuards(t *testing.T) {
	svc, _, _, target, _ := newImpersonationFixture(t)

	t.Run("facility caller", func(t *testing.T) {
		ctx := auth.ContextWithPrincipal(context.Background(), auth.Principal{
			UserID: uuid.New(), Scope: auth.ScopeFacility, TenantID: uuid.New(), TenantRole: "admin",
		})
		if _, _, err := svc.Start(ctx, target.ID, "reason"); !errors.Is(err, ErrNotPlatform) {
			t.Fatalf("expected ErrNotPlatform, got %v", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		if _, _, err := svc.Start(context.Background(), target.ID, "reason"); !errors.Is(err, ErrNotPlatform) {
			t.Fatalf("expected ErrNotPlatform, got %v", err)
		}
	})

	t.Run("role without grant", func(t *testing.T) {
		if _, _, err := svc.Start(operatorContext(auth.RoleSupportAgent), target.ID, "reason"); !errors.Is(err, ErrNotPermitted) {
			t.Fatalf("expected ErrNotPermitted, got %v", err)
		}
	})

	t.Run("missing reason", func(t *testing.T) {
		if _, _, err := svc.Start(operatorContext(auth.RoleSupportLead), target.ID, "   "); !errors.Is(err, ErrReasonRequired) {
			t.Fatalf("expected ErrReasonRequired, got %v", err)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		if _, _, err := svc.Start(operatorContext(auth.RoleSupportLead), uuid.New(), "reason"); !errors.Is(err, auth.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestStartRejectsInactiveTarget(t *testing.T) {
	svc, _, _, target, _ := newImpersonationFixture(t)
	target.Active = false

	if _, _, err := svc.Start(operatorContext(auth.RoleSuperAdmin), target.ID, "reason"); !errors.Is(err, ErrTargetInactive) {
		t.Fatalf("expected ErrTargetInactive, got %v", err)
	}
}

func TestStopEndsSession(t *testing.T) {
	svc, store, auditor, target, issuer := newImpersonationFixture(t)

	token, sess, err := svc.Start(operatorContext(auth.RoleSupportLead), target.ID, "reason")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	p, err := issuer.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ctx := auth.ContextWithPrincipal(context.Background(), *p)

	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, ok := store.sessions[sess.ID]; ok {
		t.Fatalf("session must be deleted")
	}
	if len(auditor.stopped) != 1 {
		t.Fatalf("expected stop audit record")
	}

	// Second stop finds nothing.
	if err := svc.Stop(ctx); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	// The token is now dead from the authenticator's point of view.
	active, err := svc.Active(context.Background(), sess.ID)
	if err != nil || active {
		t.Fatalf("expected inactive session, got active=%v err=%v", active, err)
	}
}

func TestStopWithoutSession(t *testing.T) {
	svc, _, _, _, _ := newImpersonationFixture(t)

	if err := svc.Stop(operatorContext(auth.RoleSupportLead)); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

// Store failures propagate from Active so token validation fails closed
// instead of honoring an unverifiable session.
func TestActiveFailsClosedOnStoreError(t *testing.T) {
	svc, store, _, _, _ := newImpersonationFixture(t)
	store.err = errors.New("redis down")

	active, err := svc.Active(context.Background(), uuid.New())
	if err == nil {
		t.Fatalf("expected error")
	}
	if active {
		t.Fatalf("must not report active on store error")
	}
}
