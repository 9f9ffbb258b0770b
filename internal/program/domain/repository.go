package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, program *Program) error
	FindByAddress(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, address string) (*Program, error)
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Program, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]Program, error)
}
