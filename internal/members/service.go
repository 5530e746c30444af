// Package members manages club member records, the canonical tenant-owned
// resource. Reads go through the isolation filter; every mutation stamps the
// tenant id from context before it reaches the store.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
)

var ErrInvalidInput = errors.New("members: invalid input")

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Member, error) {
	return s.store.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	return s.store.Get(ctx, id)
}

type CreateInput struct {
	Email    string
	FullName string
	Phone    string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Member, error) {
	tenantID, err := isolation.StampTenant(ctx)
	if err != nil {
		return nil, err
	}

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}

	m := &models.Member{
		TenantID: tenantID,
		Email:    in.Email,
		FullName: in.FullName,
		Phone:    strings.TrimSpace(in.Phone),
		Status:   models.MemberActive,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type UpdateInput struct {
	Email    *string
	FullName *string
	Phone    *string
	Status   *models.MemberStatus
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Member, error) {
	tenantID, err := isolation.StampTenant(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.TenantID != tenantID {
		return nil, ErrNotFound
	}

	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		m.Email = email
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
		}
		m.FullName = name
	}
	if in.Phone != nil {
		m.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Status != nil {
		switch *in.Status {
		case models.MemberActive, models.MemberFrozen, models.MemberInactive:
			m.Status = *in.Status
		default:
			return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, *in.Status)
		}
	}

	m.TenantID = tenantID
	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
