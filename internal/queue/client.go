package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/karimhaddad/clubcore/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) EnqueueAlertNotify(alertID, tenantID uuid.UUID, severity string) error {
	return c.enqueue(TypeAlertNotify, AlertNotifyPayload{
		AlertID:  alertID.String(),
		TenantID: tenantID.String(),
		Severity: severity,
	}, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
}

func (c *Client) EnqueueAuditPurge(retentionDays int) error {
	return c.enqueue(TypeAuditPurge, AuditPurgePayload{RetentionDays: retentionDays},
		asynq.MaxRetry(2), asynq.Timeout(10*time.Minute))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
