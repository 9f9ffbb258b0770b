package team

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Team owns parties created from its programs. DispatcherUserID is the role
// that receives parties whose owner is no longer eligible.
type Team struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name             string       `gorm:"not null" json:"name"`
	DispatcherUserID snowflake.ID `gorm:"not null" json:"dispatcher_user_id"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	FullName  string       `gorm:"not null;default:''" json:"full_name"`
	Inactive  bool         `gorm:"not null;default:false" json:"inactive"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
