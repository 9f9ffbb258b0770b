package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusInflight Status = "inflight"
	StatusDone     Status = "done"
	StatusDead     Status = "dead"
)

// InboundEvent is the durable work item between webhook receipt and
// processing. The (tenant, message) unique constraint makes enqueue
// idempotent against provider redelivery.
type InboundEvent struct {
	ID          snowflake.ID       `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID       `gorm:"not null;uniqueIndex:uq_inbound_events_message,priority:1" json:"tenant_id"`
	MessageID   string             `gorm:"not null;uniqueIndex:uq_inbound_events_message,priority:2" json:"message_id"`
	Channel     commdomain.Channel `gorm:"not null" json:"channel"`
	Payload     datatypes.JSON     `gorm:"not null;default:'{}'" json:"payload"`
	Status      Status             `gorm:"not null;default:pending;index:idx_inbound_events_claim,priority:1" json:"status"`
	Attempts    int                `gorm:"not null;default:0" json:"attempts"`
	AvailableAt time.Time          `gorm:"not null;index:idx_inbound_events_claim,priority:2" json:"available_at"`
	LockedAt    *time.Time         `json:"locked_at,omitempty"`
	LockToken   *string            `json:"lock_token,omitempty"`
	LastError   *string            `json:"last_error,omitempty"`
	CreatedAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// DeadLetter holds events that were given up on, with the reason frozen at
// burial time.
type DeadLetter struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID   `gorm:"not null;index" json:"tenant_id"`
	MessageID string         `gorm:"not null" json:"message_id"`
	Reason    string         `gorm:"not null" json:"reason"`
	Payload   datatypes.JSON `gorm:"not null;default:'{}'" json:"payload"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// Payload is the normalized message body shared by every channel. Channel
// specific webhook shapes are flattened into it at the edge so the pipeline
// never sees provider formats.
type Payload struct {
	From     string         `json:"from"`
	FromName string         `json:"from_name,omitempty"`
	To       string         `json:"to"`
	Text     string         `json:"text,omitempty"`
	Raw      map[string]any `json:"raw,omitempty"`
}
