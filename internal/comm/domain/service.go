package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RecordRequest struct {
	TenantID                      snowflake.ID
	Channel                       Channel
	MessageID                     string
	ThreadID                      string
	PartyIDs                      []snowflake.ID
	PersonIDs                     []snowflake.ID
	TeamIDs                       []snowflake.ID
	TeamPropertyProgramID         *snowflake.ID
	FallbackTeamPropertyProgramID *snowflake.ID
	Message                       datatypes.JSON
}

type Service interface {
	// Record persists the communication exactly once per (tenant, message).
	// A duplicate insert loses quietly: the stored row is returned and the
	// second return value is false.
	Record(ctx context.Context, req RecordRequest) (*Communication, bool, error)

	// RecordSpam writes the audit row for a blacklisted originator, at most
	// once per (tenant, message). Spam never becomes a Communication and
	// never touches threads or parties.
	RecordSpam(ctx context.Context, tenantID snowflake.ID, messageID, fromAddress string, channel Channel, message datatypes.JSON) error

	// Find returns the stored communication for a provider message, or nil.
	Find(ctx context.Context, tenantID snowflake.ID, messageID string) (*Communication, error)

	ListThread(ctx context.Context, tenantID snowflake.ID, threadID string) ([]Communication, error)
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidChannel = errors.New("invalid_channel")
	ErrInvalidMessage = errors.New("invalid_message")
)
