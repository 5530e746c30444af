package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/karimhaddad/clubcore/internal/alerts"
	"github.com/karimhaddad/clubcore/internal/models"
	"github.com/karimhaddad/clubcore/internal/queue"
	"github.com/karimhaddad/clubcore/internal/tenant"
)

// AlertWorker delivers new security alerts out of band. Delivery today is a
// structured notification log plus escalation logging for critical alerts;
// the task boundary keeps delivery off the request path either way.
type AlertWorker struct {
	store alerts.Store
}

func NewAlertWorker(store alerts.Store) *AlertWorker {
	return &AlertWorker{store: store}
}

func (w *AlertWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AlertNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	alertID, err := uuid.Parse(payload.AlertID)
	if err != nil {
		return fmt.Errorf("parse alert ID: %w", err)
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return fmt.Errorf("parse tenant ID: %w", err)
	}

	a, err := w.store.Get(tenant.WithID(ctx, tenantID), alertID)
	if err != nil {
		return fmt.Errorf("get alert: %w", err)
	}

	// An alert resolved before delivery is stale; drop it rather than retry.
	if a.Resolution != models.AlertUnresolved {
		slog.Info("skipping notification for resolved alert", "alert_id", a.ID)
		return nil
	}

	slog.Info("security alert notification",
		"alert_id", a.ID,
		"tenant_id", a.TenantID,
		"owner_id", a.OwnerID,
		"type", a.Type,
		"severity", a.Severity,
		"description", a.Description,
	)

	if a.Severity == models.SeverityCritical {
		slog.Warn("critical security alert requires operator attention",
			"alert_id", a.ID, "tenant_id", a.TenantID, "type", a.Type)
	}
	return nil
}
