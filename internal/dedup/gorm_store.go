package dedup

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/clock"
	pkgdb "github.com/leaseline/leaseline/pkg/db"
	"gorm.io/gorm"
)

// ProcessedMessage is the durable dedup ledger. Rows are never read back
// individually, the unique primary key does the work.
type ProcessedMessage struct {
	TenantID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	MessageID string       `gorm:"primaryKey"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

type gormStore struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewGormStore(db *gorm.DB, clk clock.Clock) Store {
	return &gormStore{db: db, clock: clk}
}

func (s *gormStore) Admit(ctx context.Context, tenantID snowflake.ID, messageID string) (bool, error) {
	row := ProcessedMessage{
		TenantID:  tenantID,
		MessageID: messageID,
		CreatedAt: s.clock.Now(),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return true, nil
	}
	if pkgdb.IsDuplicateKeyErr(err) {
		return false, nil
	}
	return false, err
}

func (s *gormStore) Forget(ctx context.Context, tenantID snowflake.ID, messageID string) error {
	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND message_id = ?", tenantID, messageID).
		Delete(&ProcessedMessage{}).Error
}
