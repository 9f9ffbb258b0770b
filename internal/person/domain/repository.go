package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindPersonsByContact(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType ContactType, value string) ([]Person, error)
	FindActiveMemberships(ctx context.Context, db *gorm.DB, tenantID, personID snowflake.ID) ([]ActiveMembership, error)
	AnySpamContact(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType ContactType, value string) (bool, error)
	InsertPerson(ctx context.Context, db *gorm.DB, person *Person) error
	InsertContactInfo(ctx context.Context, db *gorm.DB, info *ContactInfo) error
	MarkContactSpam(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, contactType ContactType, value string, spam bool) error
	BackfillPersonName(ctx context.Context, db *gorm.DB, tenantID, personID snowflake.ID, name string) error
}
