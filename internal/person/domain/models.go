package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ContactType string

const (
	ContactPhone ContactType = "phone"
	ContactEmail ContactType = "email"
)

type Person struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	FullName  string       `gorm:"not null;default:''" json:"full_name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName pins the table to "persons"; gorm would otherwise pluralize
// Person to "people", diverging from the migrations.
func (Person) TableName() string {
	return "persons"
}

// ContactInfo links an originator address to a person. IsSpam marks the
// address itself as blacklisted; the person may still have other clean
// addresses.
type ContactInfo struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index:idx_contact_infos_lookup,priority:1" json:"tenant_id"`
	PersonID  snowflake.ID `gorm:"not null" json:"person_id"`
	Type      ContactType  `gorm:"not null;index:idx_contact_infos_lookup,priority:2" json:"type"`
	Value     string       `gorm:"not null;index:idx_contact_infos_lookup,priority:3" json:"value"`
	IsSpam    bool         `gorm:"not null;default:false" json:"is_spam"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ActiveMembership is a flattened view of one open party membership, joined
// with enough of the party to drive assignment without another round trip.
type ActiveMembership struct {
	MemberID                      snowflake.ID  `json:"member_id"`
	PartyID                       snowflake.ID  `json:"party_id"`
	PartyState                    string        `json:"party_state"`
	OwnerUserID                   snowflake.ID  `json:"owner_user_id"`
	OwnerTeamID                   snowflake.ID  `json:"owner_team_id"`
	AssignedPropertyID            snowflake.ID  `json:"assigned_property_id"`
	TeamPropertyProgramID         *snowflake.ID `json:"team_property_program_id"`
	FallbackTeamPropertyProgramID *snowflake.ID `json:"fallback_team_property_program_id"`
	PartyEndDate                  *time.Time    `json:"party_end_date"`
	LastCommAt                    *time.Time    `json:"last_comm_at"`
	PartyCreatedAt                time.Time     `json:"party_created_at"`
}

// PartyOpen reports whether the membership's party is still workable at t.
// A scheduled end date in the future keeps the party open until it passes.
func (m ActiveMembership) PartyOpen(t time.Time) bool {
	return m.PartyEndDate == nil || m.PartyEndDate.After(t)
}

// Identity is one known person matched to an inbound originator address,
// together with every open party they currently belong to.
type Identity struct {
	Person        Person
	ActiveMembers []ActiveMembership
}
