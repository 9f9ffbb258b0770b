package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
)

type State string

const (
	StateContact   State = "contact"
	StateLead      State = "lead"
	StateProspect  State = "prospect"
	StateApplicant State = "applicant"
	StateResident  State = "resident"
)

// Party is the unit of work a team owns: a raw lead, a prospect pipeline
// entry, or an active lease group. A party stays open until its EndDate
// passes; a closed party never receives new communications.
type Party struct {
	ID                            snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID                      snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	State                         State         `gorm:"not null;default:contact" json:"state"`
	OwnerUserID                   snowflake.ID  `gorm:"not null" json:"owner_user_id"`
	OwnerTeamID                   snowflake.ID  `gorm:"not null" json:"owner_team_id"`
	AssignedPropertyID            snowflake.ID  `gorm:"not null;default:0" json:"assigned_property_id"`
	TeamPropertyProgramID         *snowflake.ID `json:"team_property_program_id,omitempty"`
	FallbackTeamPropertyProgramID *snowflake.ID `json:"fallback_team_property_program_id,omitempty"`
	CreatedFromCommID             *snowflake.ID `json:"created_from_comm_id,omitempty"`
	EndDate                       *time.Time    `json:"end_date,omitempty"`
	LastCommAt                    *time.Time    `json:"last_comm_at,omitempty"`
	CreatedAt                     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Open reports whether the party can still receive communications at t.
func (p Party) Open(t time.Time) bool {
	return p.EndDate == nil || p.EndDate.After(t)
}

// PartyMember joins a person to a party. Removal is soft: EndDate marks the
// member as removed while preserving history, and a partial unique index
// allows at most one open row per (party, person).
type PartyMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	PartyID   snowflake.ID `gorm:"not null" json:"party_id"`
	PersonID  snowflake.ID `gorm:"not null" json:"person_id"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Resolution is the outcome of assigning an inbound message to a party.
type Resolution struct {
	Party           Party
	Persons         []persondomain.Person
	CreatedParty    bool
	CreatedPerson   bool
	ReassignedOwner bool
}
