package members

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
	members map[uuid.UUID]*models.Member
}

func newMemoryStore() *memoryStore {
	return &memoryStore{members: make(map[uuid.UUID]*models.Member)}
}

func (m *memoryStore) List(ctx context.Context, limit, offset int) ([]models.Member, error) {
	id, scoped := tenant.FromContext(ctx)
	var out []models.Member
	for _, mem := range m.members {
		if scoped && mem.TenantID != id {
			continue
		}
		out = append(out, *mem)
	}
	return out, nil
}

func (m *memoryStore) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	if tid, scoped := tenant.FromContext(ctx); scoped && mem.TenantID != tid {
		return nil, ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *memoryStore) Insert(ctx context.Context, mem *models.Member) error {
	mem.ID = uuid.New()
	mem.CreatedAt = time.Now().UTC()
	mem.UpdatedAt = mem.CreatedAt
	cp := *mem
	m.members[mem.ID] = &cp
	return nil
}

func (m *memoryStore) Update(ctx context.Context, mem *models.Member) error {
	existing, ok := m.members[mem.ID]
	if !ok || existing.TenantID != mem.TenantID {
		return ErrNotFound
	}
	cp := *mem
	m.members[mem.ID] = &cp
	return nil
}

func memberFixture(t *testing.T) (*Service, *memoryStore, context.Context, uuid.UUID) {
	t.Helper()
	store := newMemoryStore()
	tenantID := uuid.New()
	return NewService(store), store, tenant.WithID(context.Background(), tenantID), tenantID
}

func TestCreateStampsTenant(t *testing.T) {
	svc, _, ctx, tenantID := memberFixture(t)

	m, err := svc.Create(ctx, CreateInput{Email: "Jo@Gym.Test", FullName: "Jo Miller"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.TenantID != tenantID {
		t.Fatalf("expected tenant stamp %s, got %s", tenantID, m.TenantID)
	}
	if m.Email != "jo@gym.test" {
		t.Fatalf("expected normalized email, got %s", m.Email)
	}
	if m.Status != models.MemberActive {
		t.Fatalf("new members must start active")
	}
}

func TestCreateFailsClosedWithoutTenant(t *testing.T) {
	svc, _, _, _ := memberFixture(t)

	_, err := svc.Create(context.Background(), CreateInput{Email: "jo@gym.test", FullName: "Jo"})
	if !errors.Is(err, isolation.ErrTenantRequired) {
		t.Fatalf("expected ErrTenantRequired, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, ctx, _ := memberFixture(t)

	cases := []CreateInput{
		{Email: "", FullName: "Jo"},
		{Email: "not-an-email", FullName: "Jo"},
		{Email: "jo@gym.test", FullName: "  "},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestUpdatePartial(t *testing.T) {
	svc, _, ctx, _ := memberFixture(t)
	m, err := svc.Create(ctx, CreateInput{Email: "jo@gym.test", FullName: "Jo Miller"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	frozen := models.MemberFrozen
	got, err := svc.Update(ctx, m.ID, UpdateInput{Status: &frozen})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.MemberFrozen {
		t.Fatalf("expected frozen, got %s", got.Status)
	}
	if got.Email != "jo@gym.test" || got.FullName != "Jo Miller" {
		t.Fatalf("untouched fields must survive: %+v", got)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, ctx, _ := memberFixture(t)
	m, err := svc.Create(ctx, CreateInput{Email: "jo@gym.test", FullName: "Jo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := models.MemberStatus("vip")
	if _, err := svc.Update(ctx, m.ID, UpdateInput{Status: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// A member id from another tenant reads as not-found on the write path, the
// same as on the read path.
func TestUpdateCrossTenantReadsAsNotFound(t *testing.T) {
	svc, _, ctx, _ := memberFixture(t)
	m, err := svc.Create(ctx, CreateInput{Email: "jo@gym.test", FullName: "Jo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	otherCtx := tenant.WithID(context.Background(), uuid.New())
	name := "Hijacked"
	if _, err := svc.Update(otherCtx, m.ID, UpdateInput{FullName: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListIsTenantConstrained(t *testing.T) {
	svc, _, ctx, _ := memberFixture(t)
	if _, err := svc.Create(ctx, CreateInput{Email: "a@gym.test", FullName: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	otherCtx := tenant.WithID(context.Background(), uuid.New())
	if _, err := svc.Create(otherCtx, CreateInput{Email: "b@other.test", FullName: "B"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Email != "a@gym.test" {
		t.Fatalf("expected only own tenant's members, got %+v", list)
	}

	// Empty context (platform view) sees across tenants.
	all, err := svc.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected cross-tenant view of 2, got %d", len(all))
	}
}
