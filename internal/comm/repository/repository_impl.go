package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/comm/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, comm *domain.Communication) error {
	return db.WithContext(ctx).Create(comm).Error
}

func (r *repo) FindByMessageID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, messageID string) (*domain.Communication, error) {
	var comm domain.Communication
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND message_id = ?", tenantID, messageID).
		First(&comm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comm, nil
}

func (r *repo) ListByThread(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, threadID string) ([]domain.Communication, error) {
	var comms []domain.Communication
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND thread_id = ?", tenantID, threadID).
		Order("created_at asc, id asc").
		Find(&comms).Error
	if err != nil {
		return nil, err
	}
	return comms, nil
}

func (r *repo) InsertSpamRecord(ctx context.Context, db *gorm.DB, record *domain.SpamRecord) error {
	return db.WithContext(ctx).Create(record).Error
}
