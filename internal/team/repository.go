package team

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Repository interface {
	FindTeamByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Team, error)
	FindUserByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*User, error)
}

type repo struct{}

func ProvideRepository() Repository {
	return &repo{}
}

func (r *repo) FindTeamByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Team, error) {
	var t Team
	err := db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*User, error) {
	var u User
	err := db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var Module = fx.Module("team",
	fx.Provide(ProvideRepository),
)
