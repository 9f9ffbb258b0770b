package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Channel is the inbound communication channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelCall  Channel = "call"
	ChannelEmail Channel = "email"
	ChannelWeb   Channel = "web"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelCall, ChannelEmail, ChannelWeb:
		return true
	}
	return false
}

// IsPhoneChannel reports whether originator addresses on this channel are
// phone numbers.
func (c Channel) IsPhoneChannel() bool {
	return c == ChannelSMS || c == ChannelCall
}

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Communication is a persisted inbound message. Immutable once written except
// for the unread flag.
type Communication struct {
	ID                            snowflake.ID                      `gorm:"primaryKey" json:"id"`
	TenantID                      snowflake.ID                      `gorm:"not null;uniqueIndex:uq_communications_message,priority:1" json:"tenant_id"`
	ThreadID                      string                            `gorm:"not null;index" json:"thread_id"`
	Type                          Channel                           `gorm:"not null" json:"type"`
	Direction                     Direction                         `gorm:"not null;default:in" json:"direction"`
	MessageID                     string                            `gorm:"not null;uniqueIndex:uq_communications_message,priority:2" json:"message_id"`
	PartyIDs                      datatypes.JSONSlice[snowflake.ID] `gorm:"column:party_ids" json:"party_ids"`
	PersonIDs                     datatypes.JSONSlice[snowflake.ID] `gorm:"column:person_ids" json:"person_ids"`
	TeamIDs                       datatypes.JSONSlice[snowflake.ID] `gorm:"column:team_ids" json:"team_ids"`
	TeamPropertyProgramID         *snowflake.ID                     `json:"team_property_program_id,omitempty"`
	FallbackTeamPropertyProgramID *snowflake.ID                     `json:"fallback_team_property_program_id,omitempty"`
	Message                       datatypes.JSON                    `gorm:"not null;default:'{}'" json:"message"`
	Unread                        bool                              `gorm:"not null;default:true" json:"unread"`
	CreatedAt                     time.Time                         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                     time.Time                         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// SpamRecord is the write-only audit trail for blacklisted originators. It
// never feeds identity resolution. One row per message; a redelivered spam
// event hits the unique index instead of recording twice.
type SpamRecord struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID   `gorm:"not null;uniqueIndex:uq_spam_records_message,priority:1" json:"tenant_id"`
	MessageID   string         `gorm:"not null;uniqueIndex:uq_spam_records_message,priority:2" json:"message_id"`
	FromAddress string         `gorm:"not null" json:"from_address"`
	Type        Channel        `gorm:"not null" json:"type"`
	Message     datatypes.JSON `gorm:"not null;default:'{}'" json:"message"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
