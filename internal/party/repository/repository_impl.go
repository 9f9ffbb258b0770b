package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/party/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertParty(ctx context.Context, db *gorm.DB, party *domain.Party) error {
	return db.WithContext(ctx).Create(party).Error
}

func (r *repo) InsertMember(ctx context.Context, db *gorm.DB, member *domain.PartyMember) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindPartyByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Party, error) {
	var party domain.Party
	err := db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *repo) UpdateOwner(ctx context.Context, db *gorm.DB, tenantID, partyID, ownerUserID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Party{}).
		Where("tenant_id = ? AND id = ?", tenantID, partyID).
		Update("owner_user_id", ownerUserID).Error
}

func (r *repo) TouchLastComm(ctx context.Context, db *gorm.DB, tenantID, partyID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Party{}).
		Where("tenant_id = ? AND id = ?", tenantID, partyID).
		Update("last_comm_at", at).Error
}

func (r *repo) SetCreatedFromComm(ctx context.Context, db *gorm.DB, tenantID, partyID, commID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Party{}).
		Where("tenant_id = ? AND id = ? AND created_from_comm_id IS NULL", tenantID, partyID).
		Update("created_from_comm_id", commID).Error
}
