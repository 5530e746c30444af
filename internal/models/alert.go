package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AlertResolution is the single resolution state of a security alert.
// Alerts start unresolved and move exactly once to acknowledged or dismissed.
type AlertResolution string

const (
	AlertUnresolved   AlertResolution = "unresolved"
	AlertAcknowledged AlertResolution = "acknowledged"
	AlertDismissed    AlertResolution = "dismissed"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type SecurityAlert struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	OwnerID        uuid.UUID       `json:"owner_id" db:"owner_id"`
	Type           string          `json:"type" db:"type"`
	Severity       AlertSeverity   `json:"severity" db:"severity"`
	Description    string          `json:"description" db:"description"`
	Details        json.RawMessage `json:"details,omitempty" db:"details"`
	SourceIP       string          `json:"source_ip,omitempty" db:"source_ip"`
	SourceDevice   string          `json:"source_device,omitempty" db:"source_device"`
	SourceLocation string          `json:"source_location,omitempty" db:"source_location"`
	Resolution     AlertResolution `json:"resolution" db:"resolution"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
