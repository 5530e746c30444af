package queue

const (
	TypeAlertNotify = "alert:notify"
	TypeAuditPurge  = "audit:purge"
)

type AlertNotifyPayload struct {
	AlertID  string `json:"alert_id"`
	TenantID string `json:"tenant_id"`
	Severity string `json:"severity"`
}

type AuditPurgePayload struct {
	RetentionDays int `json:"retention_days"`
}
