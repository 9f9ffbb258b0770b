package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/person/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPersonsByContact(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType domain.ContactType, value string) ([]domain.Person, error) {
	var persons []domain.Person
	err := db.WithContext(ctx).
		Model(&domain.Person{}).
		Distinct("persons.*").
		Joins("JOIN contact_infos ON contact_infos.person_id = persons.id").
		Where("contact_infos.tenant_id = ? AND contact_infos.type = ? AND contact_infos.value = ?", tenantID, contactType, value).
		Order("persons.id asc").
		Find(&persons).Error
	if err != nil {
		return nil, err
	}
	return persons, nil
}

// FindActiveMemberships returns memberships that were never ended, regardless
// of the party's own state. Callers decide what a closed party means.
func (r *repo) FindActiveMemberships(ctx context.Context, db *gorm.DB, tenantID, personID snowflake.ID) ([]domain.ActiveMembership, error) {
	var memberships []domain.ActiveMembership
	err := db.WithContext(ctx).
		Table("party_members").
		Select(`party_members.id AS member_id,
			parties.id AS party_id,
			parties.state AS party_state,
			parties.owner_user_id,
			parties.owner_team_id,
			parties.assigned_property_id,
			parties.team_property_program_id,
			parties.fallback_team_property_program_id,
			parties.end_date AS party_end_date,
			parties.last_comm_at,
			parties.created_at AS party_created_at`).
		Joins("JOIN parties ON parties.id = party_members.party_id").
		Where("party_members.tenant_id = ? AND party_members.person_id = ? AND party_members.end_date IS NULL", tenantID, personID).
		Order("CASE WHEN parties.last_comm_at IS NULL THEN 1 ELSE 0 END, parties.last_comm_at DESC, parties.created_at DESC").
		Scan(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repo) AnySpamContact(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType domain.ContactType, value string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ContactInfo{}).
		Where("tenant_id = ? AND type = ? AND value = ? AND is_spam = ?", tenantID, contactType, value, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertPerson(ctx context.Context, db *gorm.DB, person *domain.Person) error {
	return db.WithContext(ctx).Create(person).Error
}

func (r *repo) InsertContactInfo(ctx context.Context, db *gorm.DB, info *domain.ContactInfo) error {
	return db.WithContext(ctx).Create(info).Error
}

// BackfillPersonName fills the display name for a person first seen as a bare
// address. A name the tenant already set is never overwritten.
func (r *repo) BackfillPersonName(ctx context.Context, db *gorm.DB, tenantID, personID snowflake.ID, name string) error {
	if name == "" {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Person{}).
		Where("tenant_id = ? AND id = ? AND (full_name IS NULL OR full_name = '')", tenantID, personID).
		Update("full_name", name).Error
}

func (r *repo) MarkContactSpam(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType domain.ContactType, value string, spam bool) error {
	return db.WithContext(ctx).
		Model(&domain.ContactInfo{}).
		Where("tenant_id = ? AND type = ? AND value = ?", tenantID, contactType, value).
		Update("is_spam", spam).Error
}
