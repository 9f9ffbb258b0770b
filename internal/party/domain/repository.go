package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertParty(ctx context.Context, db *gorm.DB, party *Party) error
	InsertMember(ctx context.Context, db *gorm.DB, member *PartyMember) error
	FindPartyByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Party, error)
	UpdateOwner(ctx context.Context, db *gorm.DB, tenantID, partyID, ownerUserID snowflake.ID) error
	TouchLastComm(ctx context.Context, db *gorm.DB, tenantID, partyID snowflake.ID, at time.Time) error
	SetCreatedFromComm(ctx context.Context, db *gorm.DB, tenantID, partyID, commID snowflake.ID) error
}
