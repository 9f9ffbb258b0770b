package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, comm *Communication) error
	FindByMessageID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, messageID string) (*Communication, error)
	ListByThread(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, threadID string) ([]Communication, error)
	InsertSpamRecord(ctx context.Context, db *gorm.DB, record *SpamRecord) error
}
