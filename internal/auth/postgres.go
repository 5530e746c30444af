package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimhaddad/clubcore/internal/models"
)

type PostgresUserStore struct {
	db *pgxpool.Pool
}

func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) FacilityUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, password_hash, full_name, role, active, created_at
		 FROM users WHERE tenant_id = $1 AND email = $2`, tenantID, email,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("facility user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) FacilityUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, password_hash, full_name, role, active, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("facility user by id: %w", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) PlatformUserByEmail(ctx context.Context, email string) (*models.PlatformUser, error) {
	var u models.PlatformUser
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, role, active, created_at
		 FROM platform_users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("platform user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) PlatformUserByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error) {
	var u models.PlatformUser
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name, role, active, created_at
		 FROM platform_users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("platform user by id: %w", err)
	}
	return &u, nil
}
