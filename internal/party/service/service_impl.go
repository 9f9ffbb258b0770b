package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/party/domain"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	"github.com/leaseline/leaseline/internal/team"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Persons persondomain.Repository
	Teams   team.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	persons persondomain.Repository
	teams   team.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("party.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		persons: p.Persons,
		teams:   p.Teams,
	}
}

func (s *Service) Assign(ctx context.Context, req domain.AssignRequest) (domain.Resolution, error) {
	if req.TenantID == 0 {
		return domain.Resolution{}, domain.ErrInvalidTenant
	}
	if req.Route.Program.ID == 0 {
		return domain.Resolution{}, domain.ErrInvalidRoute
	}

	s.backfillNames(ctx, req)

	if membership, ok := pickMembership(req.Identities, s.clock.Now()); ok {
		return s.reuseParty(ctx, req, membership)
	}
	return s.createParty(ctx, req)
}

// backfillNames fills empty person names from the webhook-reported name.
// Best effort: a failure never blocks routing.
func (s *Service) backfillNames(ctx context.Context, req domain.AssignRequest) {
	if req.FromName == "" {
		return
	}
	for _, identity := range req.Identities {
		if identity.Person.FullName != "" {
			continue
		}
		if err := s.persons.BackfillPersonName(ctx, s.db, req.TenantID, identity.Person.ID, req.FromName); err != nil {
			s.log.Warn("person name backfill failed",
				zap.String("person_id", identity.Person.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// pickMembership selects the open membership in an open party that was most
// recently active. Memberships in closed parties do not count: the person is
// then treated as partyless and a fresh party is created for them.
func pickMembership(identities []persondomain.Identity, now time.Time) (persondomain.ActiveMembership, bool) {
	var open []persondomain.ActiveMembership
	for _, identity := range identities {
		for _, m := range identity.ActiveMembers {
			if m.PartyOpen(now) {
				open = append(open, m)
			}
		}
	}
	if len(open) == 0 {
		return persondomain.ActiveMembership{}, false
	}

	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		switch {
		case a.LastCommAt != nil && b.LastCommAt != nil:
			if !a.LastCommAt.Equal(*b.LastCommAt) {
				return a.LastCommAt.After(*b.LastCommAt)
			}
		case a.LastCommAt != nil:
			return true
		case b.LastCommAt != nil:
			return false
		}
		return a.PartyCreatedAt.After(b.PartyCreatedAt)
	})
	return open[0], true
}

func (s *Service) reuseParty(ctx context.Context, req domain.AssignRequest, membership persondomain.ActiveMembership) (domain.Resolution, error) {
	party, err := s.repo.FindPartyByID(ctx, s.db, req.TenantID, membership.PartyID)
	if err != nil {
		return domain.Resolution{}, err
	}
	if party == nil || !party.Open(s.clock.Now()) {
		// closed underneath us between lookup and load
		return s.createParty(ctx, req)
	}

	reassigned, err := s.reassignIfOwnerInactive(ctx, req.TenantID, party)
	if err != nil {
		return domain.Resolution{}, err
	}

	persons := make([]persondomain.Person, 0, len(req.Identities))
	for _, identity := range req.Identities {
		persons = append(persons, identity.Person)
	}

	return domain.Resolution{
		Party:           *party,
		Persons:         persons,
		ReassignedOwner: reassigned,
	}, nil
}

// reassignIfOwnerInactive hands the party to the owning team's dispatcher
// when the current owner is deactivated or gone. A missing team keeps the
// stale owner rather than failing the message.
func (s *Service) reassignIfOwnerInactive(ctx context.Context, tenantID snowflake.ID, party *domain.Party) (bool, error) {
	owner, err := s.teams.FindUserByID(ctx, s.db, tenantID, party.OwnerUserID)
	if err != nil {
		return false, err
	}
	if owner != nil && !owner.Inactive {
		return false, nil
	}

	owningTeam, err := s.teams.FindTeamByID(ctx, s.db, tenantID, party.OwnerTeamID)
	if err != nil {
		return false, err
	}
	if owningTeam == nil || owningTeam.DispatcherUserID == 0 {
		s.log.Warn("inactive owner but no dispatcher to reassign to",
			zap.String("tenant_id", tenantID.String()),
			zap.String("party_id", party.ID.String()),
		)
		return false, nil
	}
	if owningTeam.DispatcherUserID == party.OwnerUserID {
		return false, nil
	}

	if err := s.repo.UpdateOwner(ctx, s.db, tenantID, party.ID, owningTeam.DispatcherUserID); err != nil {
		return false, err
	}
	party.OwnerUserID = owningTeam.DispatcherUserID
	return true, nil
}

func (s *Service) createParty(ctx context.Context, req domain.AssignRequest) (domain.Resolution, error) {
	fromAddress := address.Normalize(req.FromAddress)
	if fromAddress == "" {
		return domain.Resolution{}, domain.ErrInvalidContact
	}

	owningTeam, err := s.teams.FindTeamByID(ctx, s.db, req.TenantID, req.Route.Program.TeamID)
	if err != nil {
		return domain.Resolution{}, err
	}
	if owningTeam == nil {
		return domain.Resolution{}, domain.ErrTeamNotFound
	}

	now := s.clock.Now()
	programID, fallbackID := req.Route.RecordedIDs()

	party := domain.Party{
		ID:                            s.genID.Generate(),
		TenantID:                      req.TenantID,
		State:                         domain.StateContact,
		OwnerUserID:                   owningTeam.DispatcherUserID,
		OwnerTeamID:                   owningTeam.ID,
		AssignedPropertyID:            req.Route.Program.PropertyID,
		TeamPropertyProgramID:         &programID,
		FallbackTeamPropertyProgramID: fallbackID,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}

	persons := make([]persondomain.Person, 0, len(req.Identities))
	for _, identity := range req.Identities {
		persons = append(persons, identity.Person)
	}

	createdPerson := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(persons) == 0 {
			person := persondomain.Person{
				ID:        s.genID.Generate(),
				TenantID:  req.TenantID,
				FullName:  req.FromName,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.persons.InsertPerson(ctx, tx, &person); err != nil {
				return err
			}
			info := persondomain.ContactInfo{
				ID:        s.genID.Generate(),
				TenantID:  req.TenantID,
				PersonID:  person.ID,
				Type:      req.ContactType,
				Value:     fromAddress,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.persons.InsertContactInfo(ctx, tx, &info); err != nil {
				return err
			}
			persons = append(persons, person)
			createdPerson = true
		}

		if err := s.repo.InsertParty(ctx, tx, &party); err != nil {
			return err
		}
		for _, person := range persons {
			member := domain.PartyMember{
				ID:        s.genID.Generate(),
				TenantID:  req.TenantID,
				PartyID:   party.ID,
				PersonID:  person.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.InsertMember(ctx, tx, &member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Resolution{}, err
	}

	return domain.Resolution{
		Party:         party,
		Persons:       persons,
		CreatedParty:  true,
		CreatedPerson: createdPerson,
	}, nil
}

func (s *Service) RecordComm(ctx context.Context, tenantID, partyID, commID snowflake.ID, createdParty bool) error {
	if tenantID == 0 || partyID == 0 {
		return domain.ErrInvalidTenant
	}
	if err := s.repo.TouchLastComm(ctx, s.db, tenantID, partyID, s.clock.Now()); err != nil {
		return err
	}
	if createdParty && commID != 0 {
		return s.repo.SetCreatedFromComm(ctx, s.db, tenantID, partyID, commID)
	}
	return nil
}
