package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
)

var ErrNotFound = errors.New("alerts: not found")

// Store persists the append-only alert ledger. Rows never change except for
// the single resolution transition.
type Store interface {
	Insert(ctx context.Context, a *models.SecurityAlert) error
	Get(ctx context.Context, id uuid.UUID) (*models.SecurityAlert, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, resolution *models.AlertResolution, limit, offset int) ([]models.SecurityAlert, error)
	SetResolution(ctx context.Context, id uuid.UUID, res models.AlertResolution, at time.Time) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, a *models.SecurityAlert) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO security_alerts
		   (tenant_id, owner_id, type, severity, description, details, source_ip, source_device, source_location, resolution)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		a.TenantID, a.OwnerID, a.Type, a.Severity, a.Description, a.Details,
		a.SourceIP, a.SourceDevice, a.SourceLocation, a.Resolution,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert security alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.SecurityAlert, error) {
	var a models.SecurityAlert
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, owner_id, type, severity, description, details,
		        source_ip, source_device, source_location, resolution, resolved_at, created_at
		 FROM security_alerts WHERE id = $1`, id,
	).Scan(&a.ID, &a.TenantID, &a.OwnerID, &a.Type, &a.Severity, &a.Description, &a.Details,
		&a.SourceIP, &a.SourceDevice, &a.SourceLocation, &a.Resolution, &a.ResolvedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get security alert: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, resolution *models.AlertResolution, limit, offset int) ([]models.SecurityAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	// Self-service listing is always tenant-scoped.
	predicate, args, err := isolation.Filter(ctx, isolation.TenantScoped, "tenant_id", 1)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, tenant_id, owner_id, type, severity, description, details,
	                 source_ip, source_device, source_location, resolution, resolved_at, created_at
	          FROM security_alerts WHERE ` + predicate
	args = append(args, ownerID)
	query += fmt.Sprintf(" AND owner_id = $%d", len(args))

	if resolution != nil {
		args = append(args, *resolution)
		query += fmt.Sprintf(" AND resolution = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list security alerts: %w", err)
	}
	defer rows.Close()

	var out []models.SecurityAlert
	for rows.Next() {
		var a models.SecurityAlert
		if err := rows.Scan(&a.ID, &a.TenantID, &a.OwnerID, &a.Type, &a.Severity, &a.Description, &a.Details,
			&a.SourceIP, &a.SourceDevice, &a.SourceLocation, &a.Resolution, &a.ResolvedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan security alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetResolution(ctx context.Context, id uuid.UUID, res models.AlertResolution, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE security_alerts SET resolution = $1, resolved_at = $2
		 WHERE id = $3 AND resolution = $4`,
		res, at, id, models.AlertUnresolved)
	if err != nil {
		return fmt.Errorf("set alert resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
