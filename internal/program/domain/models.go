package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Program binds a destination address (phone number or email alias) to a
// team/property routing target. An ended program is never selected as a
// primary route but may still redirect through its fallback.
type Program struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID  `gorm:"not null;index:idx_programs_tenant_address,unique,priority:1" json:"tenant_id"`
	Name              string        `gorm:"not null" json:"name"`
	DirectAddress     string        `gorm:"not null;index:idx_programs_tenant_address,unique,priority:2" json:"direct_address"`
	Direction         Direction     `gorm:"not null;default:in" json:"direction"`
	TeamID            snowflake.ID  `gorm:"not null" json:"team_id"`
	PropertyID        snowflake.ID  `gorm:"not null" json:"property_id"`
	EndDate           *time.Time    `json:"end_date,omitempty"`
	FallbackProgramID *snowflake.ID `json:"fallback_program_id,omitempty"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ActiveAt reports whether the program can be a primary route at t.
func (p Program) ActiveAt(t time.Time) bool {
	return p.EndDate == nil || p.EndDate.After(t)
}

// RouteResolution is the outcome of resolving a destination address.
// FallbackUsed marks intake through a fallback program; OriginalProgram then
// carries the ended primary so downstream reporting can distinguish the two.
type RouteResolution struct {
	Program         Program
	FallbackUsed    bool
	OriginalProgram *Program
}

// RecordedIDs returns the program pair persisted on parties and
// communications: the program bound to the dialed address, and the fallback
// that actually took the traffic when the primary had ended.
func (r RouteResolution) RecordedIDs() (snowflake.ID, *snowflake.ID) {
	if r.FallbackUsed && r.OriginalProgram != nil {
		handling := r.Program.ID
		return r.OriginalProgram.ID, &handling
	}
	return r.Program.ID, nil
}
