// Package alerts is the ledger of suspicious-activity events tied to a
// facility identity. Alerts are appended by detection logic and resolved by
// their owner; resolution is a single one-way transition.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karimhaddad/clubcore/internal/isolation"
	"github.com/karimhaddad/clubcore/internal/metrics"
	"github.com/karimhaddad/clubcore/internal/models"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

var (
	// ErrOwnership means the caller tried to resolve someone else's alert.
	ErrOwnership = errors.New("alerts: alert belongs to another identity")

	// ErrAlreadyResolved means the alert already took the other terminal
	// transition (acknowledge vs dismiss).
	ErrAlreadyResolved = errors.New("alerts: alert already resolved")
)

// Notifier enqueues out-of-band delivery of new alerts.
type Notifier interface {
	EnqueueAlertNotify(alertID, tenantID uuid.UUID, severity string) error
}

// PlatformAnomalyLog records anomalies against operator accounts, which have
// no tenant to own a ledger row. Implemented by the audit trail.
type PlatformAnomalyLog interface {
	PlatformLoginAnomaly(ctx context.Context, email, sourceIP string, failures int64)
}

type Service struct {
	store       Store
	notifier    Notifier
	platformLog PlatformAnomalyLog
}

func NewService(store Store, notifier Notifier, platformLog PlatformAnomalyLog) *Service {
	return &Service{store: store, notifier: notifier, platformLog: platformLog}
}

// RecordInput describes a detection event. Tenant attribution comes from the
// request context, not from the input.
type RecordInput struct {
	OwnerID        uuid.UUID
	Type           string
	Severity       models.AlertSeverity
	Description    string
	Details        any
	SourceIP       string
	SourceDevice   string
	SourceLocation string
}

// Record appends an alert for the current tenant. Notification delivery is
// best-effort and asynchronous; the ledger write is what matters.
func (s *Service) Record(ctx context.Context, in RecordInput) (*models.SecurityAlert, error) {
	tenantID, err := isolation.StampTenant(ctx)
	if err != nil {
		return nil, err
	}
	if in.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("alerts: owner is required")
	}

	var details json.RawMessage
	if in.Details != nil {
		details, err = json.Marshal(in.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal alert details: %w", err)
		}
	}

	a := &models.SecurityAlert{
		TenantID:       tenantID,
		OwnerID:        in.OwnerID,
		Type:           in.Type,
		Severity:       in.Severity,
		Description:    in.Description,
		Details:        details,
		SourceIP:       in.SourceIP,
		SourceDevice:   in.SourceDevice,
		SourceLocation: in.SourceLocation,
		Resolution:     models.AlertUnresolved,
	}
	if err := s.store.Insert(ctx, a); err != nil {
		return nil, err
	}

	metrics.SecurityAlerts.WithLabelValues(string(a.Severity)).Inc()

	if s.notifier != nil {
		if err := s.notifier.EnqueueAlertNotify(a.ID, a.TenantID, string(a.Severity)); err != nil {
			slog.Warn("alert notification enqueue failed", "alert_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// List returns the caller's own alerts, optionally filtered by resolution.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, resolution *models.AlertResolution, limit, offset int) ([]models.SecurityAlert, error) {
	return s.store.ListByOwner(ctx, ownerID, resolution, limit, offset)
}

// Acknowledge moves an unresolved alert to acknowledged. Acknowledging an
// already-acknowledged alert is a no-op success that keeps the original
// timestamp; an alert that was dismissed instead reports ErrAlreadyResolved.
func (s *Service) Acknowledge(ctx context.Context, alertID, byIdentity uuid.UUID) (*models.SecurityAlert, error) {
	return s.resolve(ctx, alertID, byIdentity, models.AlertAcknowledged)
}

// Dismiss is the symmetric terminal transition.
func (s *Service) Dismiss(ctx context.Context, alertID, byIdentity uuid.UUID) (*models.SecurityAlert, error) {
	return s.resolve(ctx, alertID, byIdentity, models.AlertDismissed)
}

func (s *Service) resolve(ctx context.Context, alertID, byIdentity uuid.UUID, target models.AlertResolution) (*models.SecurityAlert, error) {
	a, err := s.store.Get(ctx, alertID)
	if err != nil {
		return nil, err
	}

	// Ownership first: this is a self-service operation, distinct from any
	// platform-role gate. A tenant mismatch also reads as not-found.
	if !isolation.Owns(ctx, a.TenantID) {
		return nil, ErrNotFound
	}
	if a.OwnerID != byIdentity {
		return nil, ErrOwnership
	}

	switch a.Resolution {
	case target:
		return a, nil
	case models.AlertUnresolved:
		now := time.Now().UTC()
		if err := s.store.SetResolution(ctx, a.ID, target, now); err != nil {
			return nil, err
		}
		a.Resolution = target
		a.ResolvedAt = &now
		return a, nil
	default:
		return nil, ErrAlreadyResolved
	}
}

// RepeatedLoginFailures implements the login anomaly sink: a run of failed
// logins against one account becomes an unresolved alert for that account.
// The tenant is taken from the detection event, not the request context,
// since login requests carry no authenticated tenant.
func (s *Service) RepeatedLoginFailures(ctx context.Context, tenantID, ownerID uuid.UUID, email, sourceIP string, failures int64) {
	// Operator accounts have no tenant to own a ledger row; their anomalies
	// go to the audit trail instead of being dropped by the tenant stamp.
	if tenantID == uuid.Nil {
		if s.platformLog == nil {
			slog.Warn("no platform anomaly log configured", "email", email, "failures", failures)
			return
		}
		s.platformLog.PlatformLoginAnomaly(ctx, email, sourceIP, failures)
		return
	}

	_, err := s.Record(tenant.WithID(ctx, tenantID), RecordInput{
		OwnerID:     ownerID,
		Type:        "login.repeated-failures",
		Severity:    models.SeverityWarning,
		Description: fmt.Sprintf("%d failed login attempts for %s", failures, email),
		Details:     map[string]any{"failures": failures, "email": email},
		SourceIP:    sourceIP,
	})
	if err != nil {
		slog.Warn("failed to record login anomaly alert", "tenant_id", tenantID, "owner_id", ownerID, "error", err)
	}
}
