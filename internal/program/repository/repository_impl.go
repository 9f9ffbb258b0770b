package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/program/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, program *domain.Program) error {
	return db.WithContext(ctx).Create(program).Error
}

func (r *repo) FindByAddress(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, address string) (*domain.Program, error) {
	var program domain.Program
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND direct_address = ?", tenantID, address).
		First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Program, error) {
	var program domain.Program
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]domain.Program, error) {
	var programs []domain.Program
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc, id desc").
		Find(&programs).Error
	if err != nil {
		return nil, err
	}
	return programs, nil
}
