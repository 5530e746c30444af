// Package audit is the append-only trail of security-relevant events:
// access denials, logins, impersonation lifecycle and alert transitions.
// Entries attribute impersonated actions to both identities involved.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimhaddad/clubcore/internal/auth"
	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/models"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type Entry struct {
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]any
	IPAddress    string
}

// Log writes one entry, attributing it from the request context. Audit
// writes never fail the business operation; failures are logged and counted
// as defects, not propagated.
func (s *Service) Log(ctx context.Context, entry Entry) {
	if err := s.log(ctx, entry); err != nil {
		slog.Error("audit write failed", "action", entry.Action, "error", err)
	}
}

func (s *Service) log(ctx context.Context, entry Entry) error {
	var tenantID *uuid.UUID
	if id, ok := tenant.FromContext(ctx); ok {
		tenantID = &id
	}

	actorType, actorID, impersonatedBy := attribution(ctx)

	details, _ := json.Marshal(entry.Details)

	var ip *netip.Addr
	if entry.IPAddress != "" {
		if parsed, err := netip.ParseAddr(entry.IPAddress); err == nil {
			ip = &parsed
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (tenant_id, actor_id, actor_type, impersonated_by, action, resource_type, resource_id, details, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tenantID, actorID, actorType, impersonatedBy, entry.Action, entry.ResourceType, entry.ResourceID, details, ip,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// attribution derives the actor columns from the request principal. Under
// impersonation the actor stays the impersonated facility user so business
// data lines up; the operator lands in impersonated_by. Losing either
// identity would be a logging defect.
func attribution(ctx context.Context) (models.ActorType, *uuid.UUID, *uuid.UUID) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return models.ActorAnonymous, nil, nil
	}

	id := p.UserID
	switch {
	case p.Impersonation != nil:
		operator := p.Impersonation.UserID
		return models.ActorImpersonated, &id, &operator
	case p.Scope == auth.ScopePlatform:
		return models.ActorPlatform, &id, nil
	default:
		return models.ActorFacility, &id, nil
	}
}

// AccessDenied implements the enforcer's audit sink.
func (s *Service) AccessDenied(ctx context.Context, op, reason string, missing []string) {
	details := map[string]any{"reason": reason}
	if len(missing) > 0 {
		details["missing_permissions"] = missing
	}
	s.Log(ctx, Entry{
		Action:       "access.denied",
		ResourceType: "operation",
		Details:      mergeOp(details, op),
	})
}

func mergeOp(details map[string]any, op string) map[string]any {
	details["operation"] = op
	return details
}

// PlatformLoginAnomaly records repeated login failures against an operator
// account. Operator accounts have no tenant, so the anomaly lands in the
// trail rather than in a tenant's alert ledger.
func (s *Service) PlatformLoginAnomaly(ctx context.Context, email, sourceIP string, failures int64) {
	s.Log(ctx, Entry{
		Action:       "login.repeated-failures",
		ResourceType: "platform_user",
		Details:      map[string]any{"email": email, "failures": failures},
		IPAddress:    sourceIP,
	})
}

type Query struct {
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// List returns audit entries for operators. Platform callers with an empty
// tenant context see the whole trail; a populated context narrows to that
// tenant.
func (s *Service) List(ctx context.Context, q Query) ([]models.AuditLog, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	predicate, args, err := isolation.Filter(ctx, isolation.TenantOptional, "tenant_id", 1)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, tenant_id, actor_id, actor_type, impersonated_by, action, resource_type, resource_id, details, ip_address, created_at
	          FROM audit_logs WHERE ` + predicate

	if q.Action != "" {
		args = append(args, q.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if q.StartDate != nil {
		args = append(args, *q.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if q.EndDate != nil {
		args = append(args, *q.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, q.Limit, q.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ActorID, &l.ActorType, &l.ImpersonatedBy, &l.Action,
			&l.ResourceType, &l.ResourceID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// PurgeBefore deletes entries older than the cutoff. Run from the retention
// worker, never inline with requests.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM audit_logs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
