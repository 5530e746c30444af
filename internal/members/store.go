package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
)

var ErrNotFound = errors.New("members: not found")

type Store interface {
	List(ctx context.Context, limit, offset int) ([]models.Member, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Member, error)
	Insert(ctx context.Context, m *models.Member) error
	Update(ctx context.Context, m *models.Member) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// List is a tenant-optional read: facility requests are constrained to their
// tenant's rows, an empty context (platform) sees across tenants.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]models.Member, error) {
	if limit <= 0 {
		limit = 50
	}

	predicate, args, err := isolation.Filter(ctx, isolation.TenantOptional, "tenant_id", 1)
	if err != nil {
		return nil, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id, tenant_id, email, full_name, phone, status, created_at, updated_at
		 FROM members WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		predicate, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Email, &m.FullName, &m.Phone, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	predicate, args, err := isolation.Filter(ctx, isolation.TenantOptional, "tenant_id", 1)
	if err != nil {
		return nil, err
	}
	args = append(args, id)
	query := fmt.Sprintf(
		`SELECT id, tenant_id, email, full_name, phone, status, created_at, updated_at
		 FROM members WHERE %s AND id = $%d`, predicate, len(args))

	var m models.Member
	err = s.db.QueryRow(ctx, query, args...).
		Scan(&m.ID, &m.TenantID, &m.Email, &m.FullName, &m.Phone, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (s *PostgresStore) Insert(ctx context.Context, m *models.Member) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO members (tenant_id, email, full_name, phone, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		m.TenantID, m.Email, m.FullName, m.Phone, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// Update keys on id and the stamped tenant id, so a write can never cross a
// tenant boundary even with a guessed row id.
func (s *PostgresStore) Update(ctx context.Context, m *models.Member) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE members SET email = $1, full_name = $2, phone = $3, status = $4, updated_at = now()
		 WHERE id = $5 AND tenant_id = $6`,
		m.Email, m.FullName, m.Phone, m.Status, m.ID, m.TenantID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
