package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

type memoryStore struct {
	alerts map[uuid.UUID]*models.SecurityAlert
}

func newMemoryStore() *memoryStore {
	return &memoryStore{alerts: make(map[uuid.UUID]*models.SecurityAlert)}
}

func (m *memoryStore) Insert(ctx context.Context, a *models.SecurityAlert) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id uuid.UUID) (*models.SecurityAlert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, resolution *models.AlertResolution, limit, offset int) ([]models.SecurityAlert, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, isolation.ErrTenantRequired
	}
	var out []models.SecurityAlert
	for _, a := range m.alerts {
		if a.TenantID != id || a.OwnerID != ownerID {
			continue
		}
		if resolution != nil && a.Resolution != *resolution {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memoryStore) SetResolution(ctx context.Context, id uuid.UUID, res models.AlertResolution, at time.Time) error {
	a, ok := m.alerts[id]
	if !ok || a.Resolution != models.AlertUnresolved {
		return ErrNotFound
	}
	a.Resolution = res
	a.ResolvedAt = &at
	return nil
}

type fakeNotifier struct {
	enqueued int
	err      error
}

func (f *fakeNotifier) EnqueueAlertNotify(alertID, tenantID uuid.UUID, severity string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued++
	return nil
}

type fakePlatformLog struct {
	email    string
	sourceIP string
	failures int64
	calls    int
}

func (f *fakePlatformLog) PlatformLoginAnomaly(ctx context.Context, email, sourceIP string, failures int64) {
	f.email, f.sourceIP, f.failures = email, sourceIP, failures
	f.calls++
}

func alertFixture(t *testing.T) (*Service, *memoryStore, *fakeNotifier, context.Context, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := newMemoryStore()
	notifier := &fakeNotifier{}
	svc := NewService(store, notifier, &fakePlatformLog{})
	tenantID := uuid.New()
	ownerID := uuid.New()
	ctx := tenant.WithID(context.Background(), tenantID)
	return svc, store, notifier, ctx, tenantID, ownerID
}

func record(t *testing.T, svc *Service, ctx context.Context, ownerID uuid.UUID) *models.SecurityAlert {
	t.Helper()
	a, err := svc.Record(ctx, RecordInput{
		OwnerID:     ownerID,
		Type:        "login.new-device",
		Severity:    models.SeverityWarning,
		Description: "sign-in from a new device",
		SourceIP:    "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return a
}

func TestRecordStampsTenantFromContext(t *testing.T) {
	svc, store, notifier, ctx, tenantID, ownerID := alertFixture(t)

	a := record(t, svc, ctx, ownerID)
	if a.TenantID != tenantID {
		t.Fatalf("expected tenant stamp %s, got %s", tenantID, a.TenantID)
	}
	if a.Resolution != models.AlertUnresolved {
		t.Fatalf("new alerts must start unresolved")
	}
	if store.alerts[a.ID] == nil {
		t.Fatalf("alert not persisted")
	}
	if notifier.enqueued != 1 {
		t.Fatalf("expected one notification enqueue")
	}
}

func TestRecordFailsClosedWithoutTenant(t *testing.T) {
	svc, _, _, _, _, ownerID := alertFixture(t)

	_, err := svc.Record(context.Background(), RecordInput{OwnerID: ownerID, Type: "x"})
	if !errors.Is(err, isolation.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestRecordSurvivesNotifierFailure(t *testing.T) {
	svc, _, notifier, ctx, _, ownerID := alertFixture(t)
	notifier.err = errors.New("queue down")

	if a := record(t, svc, ctx, ownerID); a.ID == uuid.Nil {
		t.Fatalf("ledger write must succeed despite notifier failure")
	}
}

func TestAcknowledgeTransitions(t *testing.T) {
	svc, _, _, ctx, _, ownerID := alertFixture(t)
	a := record(t, svc, ctx, ownerID)

	got, err := svc.Acknowledge(ctx, a.ID, ownerID)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if got.Resolution != models.AlertAcknowledged || got.ResolvedAt == nil {
		t.Fatalf("unexpected state: %+v", got)
	}
	firstResolved := *got.ResolvedAt

	// Same transition again: idempotent no-op keeping the original timestamp.
	again, err := svc.Acknowledge(ctx, a.ID, ownerID)
	if err != nil {
		t.Fatalf("repeat acknowledge: %v", err)
	}
	if again.ResolvedAt == nil || !again.ResolvedAt.Equal(firstResolved) {
		t.Fatalf("repeat must keep original resolution time")
	}

	// The other transition is a conflict, not a silent overwrite.
	if _, err := svc.Dismiss(ctx, a.ID, ownerID); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestDismissMirrorsAcknowledge(t *testing.T) {
	svc, _, _, ctx, _, ownerID := alertFixture(t)
	a := record(t, svc, ctx, ownerID)

	if _, err := svc.Dismiss(ctx, a.ID, ownerID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if _, err := svc.Dismiss(ctx, a.ID, ownerID); err != nil {
		t.Fatalf("repeat dismiss: %v", err)
	}
	if _, err := svc.Acknowledge(ctx, a.ID, ownerID); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolveEnforcesOwnership(t *testing.T) {
	svc, _, _, ctx, _, ownerID := alertFixture(t)
	a := record(t, svc, ctx, ownerID)

	if _, err := svc.Acknowledge(ctx, a.ID, uuid.New()); !errors.Is(err, ErrOwnership) {
		t.Fatalf("expected ErrOwnership, got %v", err)
	}
}

// A caller from another tenant gets not-found, indistinguishable from a
// nonexistent alert.
func TestResolveCrossTenantReadsAsNotFound(t *testing.T) {
	svc, _, _, ctx, _, ownerID := alertFixture(t)
	a := record(t, svc, ctx, ownerID)

	otherCtx := tenant.WithID(context.Background(), uuid.New())
	if _, err := svc.Acknowledge(otherCtx, a.ID, ownerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Empty tenant context is equally blind.
	if _, err := svc.Acknowledge(context.Background(), a.ID, ownerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty context, got %v", err)
	}
}

func TestListFiltersByResolution(t *testing.T) {
	svc, _, _, ctx, _, ownerID := alertFixture(t)
	a := record(t, svc, ctx, ownerID)
	record(t, svc, ctx, ownerID)

	if _, err := svc.Acknowledge(ctx, a.ID, ownerID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	unresolved := models.AlertUnresolved
	list, err := svc.List(ctx, ownerID, &unresolved, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Resolution != models.AlertUnresolved {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestRepeatedLoginFailuresRecordsAlert(t *testing.T) {
	svc, store, _, _, tenantID, ownerID := alertFixture(t)

	// The sink runs on a bare request context; tenant comes from the event.
	svc.RepeatedLoginFailures(context.Background(), tenantID, ownerID, "owner@gym.test", "203.0.113.9", 5)

	if len(store.alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(store.alerts))
	}
	for _, a := range store.alerts {
		if a.TenantID != tenantID || a.OwnerID != ownerID {
			t.Fatalf("attribution mismatch: %+v", a)
		}
		if a.Type != "login.repeated-failures" || a.Severity != models.SeverityWarning {
			t.Fatalf("unexpected alert: %+v", a)
		}
	}
}

// Operator accounts have no tenant; their anomalies reach the platform log
// rather than dying on the tenant stamp.
func TestRepeatedLoginFailuresPlatformGoesToTrail(t *testing.T) {
	store := newMemoryStore()
	platformLog := &fakePlatformLog{}
	svc := NewService(store, &fakeNotifier{}, platformLog)

	svc.RepeatedLoginFailures(context.Background(), uuid.Nil, uuid.New(), "op@clubcore.test", "203.0.113.9", 5)

	if len(store.alerts) != 0 {
		t.Fatalf("platform anomalies must not land in the tenant ledger")
	}
	if platformLog.calls != 1 {
		t.Fatalf("expected one platform log entry, got %d", platformLog.calls)
	}
	if platformLog.email != "op@clubcore.test" || platformLog.failures != 5 {
		t.Fatalf("unexpected platform log record: %+v", platformLog)
	}
}
