package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/karimhaddad/clubcore/internal/audit"
	"github.com/karimhaddad/clubcore/internal/queue"
)

// AuditWorker applies the audit retention policy.
type AuditWorker struct {
	auditSvc *audit.Service
}

func NewAuditWorker(auditSvc *audit.Service) *AuditWorker {
	return &AuditWorker{auditSvc: auditSvc}
}

func (w *AuditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.RetentionDays <= 0 {
		return fmt.Errorf("invalid retention days: %d", payload.RetentionDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -payload.RetentionDays)
	purged, err := w.auditSvc.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge audit logs: %w", err)
	}

	slog.Info("audit retention purge complete", "cutoff", cutoff, "purged", purged)
	return nil
}
