package models

import (
	"encoding/json"
	"net/netip"
	"time"

	"github.com/google/uuid"
)

type ActorType string

const (
	ActorFacility     ActorType = "facility"
	ActorPlatform     ActorType = "platform"
	ActorImpersonated ActorType = "impersonated"
	ActorAnonymous    ActorType = "anonymous"
)

// AuditLog records one security-relevant event. Impersonated events carry
// both identities: the actor is the impersonated facility user the business
// data belongs to, impersonated_by is the operator driving the session.
type AuditLog struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	TenantID       *uuid.UUID      `json:"tenant_id,omitempty" db:"tenant_id"`
	ActorID        *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	ActorType      ActorType       `json:"actor_type" db:"actor_type"`
	ImpersonatedBy *uuid.UUID      `json:"impersonated_by,omitempty" db:"impersonated_by"`
	Action         string          `json:"action" db:"action"`
	ResourceType   string          `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID     *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details        json.RawMessage `json:"details" db:"details"`
	IPAddress      *netip.Addr     `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
