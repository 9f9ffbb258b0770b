package dedup

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Store decides whether a message may take effect. Admit returns true exactly
// once per (tenant, message); every later call returns false. When the store
// cannot be reached the error is surfaced so the caller can retry later, a
// message is never admitted on the assumption that it is probably new.
type Store interface {
	Admit(ctx context.Context, tenantID snowflake.ID, messageID string) (bool, error)

	// Forget undoes an admit whose processing failed transiently, so the
	// redelivery is admitted again instead of dropped.
	Forget(ctx context.Context, tenantID snowflake.ID, messageID string) error
}
