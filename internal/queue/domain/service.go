package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
)

type EnqueueRequest struct {
	TenantID  snowflake.ID
	Channel   commdomain.Channel
	MessageID string
	Payload   Payload
}

type Service interface {
	// Enqueue accepts a normalized inbound message for asynchronous
	// processing. Redelivered messages are accepted and dropped, the
	// returned flag tells the two apart.
	Enqueue(ctx context.Context, req EnqueueRequest) (*InboundEvent, bool, error)
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidChannel = errors.New("invalid_channel")
	ErrInvalidMessage = errors.New("invalid_message")
	ErrInvalidPayload = errors.New("invalid_payload")
)
