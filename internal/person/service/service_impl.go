package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	"github.com/leaseline/leaseline/internal/person/domain"
	"github.com/leaseline/leaseline/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("person.service"),
		repo: p.Repo,
	}
}

func (s *Service) ResolveIdentities(ctx context.Context, tenantID snowflake.ID, contactType domain.ContactType, value string) ([]domain.Identity, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	value = address.Normalize(value)
	if value == "" {
		return nil, domain.ErrInvalidContact
	}

	persons, err := s.repo.FindPersonsByContact(ctx, s.db, tenantID, contactType, value)
	if err != nil {
		return nil, err
	}

	identities := make([]domain.Identity, 0, len(persons))
	for _, person := range persons {
		memberships, err := s.repo.FindActiveMemberships(ctx, s.db, tenantID, person.ID)
		if err != nil {
			return nil, err
		}
		identities = append(identities, domain.Identity{
			Person:        person,
			ActiveMembers: memberships,
		})
	}
	return identities, nil
}

func (s *Service) IsSpamSource(ctx context.Context, tenantID snowflake.ID, contactType domain.ContactType, value string) (bool, error) {
	if tenantID == 0 {
		return false, domain.ErrInvalidTenant
	}
	value = address.Normalize(value)
	if value == "" {
		return false, domain.ErrInvalidContact
	}
	return s.repo.AnySpamContact(ctx, s.db, tenantID, contactType, value)
}

func (s *Service) MarkSpam(ctx context.Context, contactType domain.ContactType, value string, spam bool) error {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.ErrInvalidTenant
	}
	value = address.Normalize(value)
	if value == "" {
		return domain.ErrInvalidContact
	}
	return s.repo.MarkContactSpam(ctx, s.db, tenantID, contactType, value, spam)
}
