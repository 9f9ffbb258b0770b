package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Enqueue inserts the event, quietly succeeding when the (tenant,
	// message) pair is already queued. The returned flag is false for a
	// redelivery.
	Enqueue(ctx context.Context, db *gorm.DB, event *InboundEvent) (bool, error)

	// Claim atomically moves up to limit due events to inflight under the
	// given lock token. Events whose visibility deadline passed while
	// inflight are reclaimed the same way.
	Claim(ctx context.Context, db *gorm.DB, lockToken string, limit int, now time.Time, visibility time.Duration) ([]InboundEvent, error)

	// Done marks the event finished. The token guards against a worker that
	// lost its claim to a reclaim.
	Done(ctx context.Context, db *gorm.DB, eventID snowflake.ID, lockToken string) error

	// Release puts the event back as pending, due again after backoff.
	Release(ctx context.Context, db *gorm.DB, eventID snowflake.ID, lockToken string, backoff time.Duration, lastError string, now time.Time) error

	// Bury moves the event to the dead letter table and marks it dead.
	Bury(ctx context.Context, db *gorm.DB, event *InboundEvent, lockToken, reason string, now time.Time) error

	CountDead(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (int64, error)
}
