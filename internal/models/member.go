package models

import (
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberFrozen   MemberStatus = "frozen"
	MemberInactive MemberStatus = "inactive"
)

// Member is a club member record. Every row is owned by exactly one tenant.
type Member struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	TenantID  uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Email     string       `json:"email" db:"email"`
	FullName  string       `json:"full_name" db:"full_name"`
	Phone     string       `json:"phone,omitempty" db:"phone"`
	Status    MemberStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}
