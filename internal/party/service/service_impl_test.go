package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/party/domain"
	"github.com/leaseline/leaseline/internal/party/repository"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	personrepo "github.com/leaseline/leaseline/internal/person/repository"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
	"github.com/leaseline/leaseline/internal/team"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testTenant     = snowflake.ID(7001)
	testTeamID     = snowflake.ID(60)
	testDispatcher = snowflake.ID(55)
	testProperty   = snowflake.ID(70)
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&domain.Party{}, &domain.PartyMember{},
		&persondomain.Person{}, &persondomain.ContactInfo{},
		&team.Team{}, &team.User{},
	))

	require.NoError(t, conn.Create(&team.User{ID: testDispatcher, TenantID: testTenant, FullName: "Dispatcher"}).Error)
	require.NoError(t, conn.Create(&team.Team{
		ID: testTeamID, TenantID: testTenant, Name: "Leasing",
		DispatcherUserID: testDispatcher,
	}).Error)

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:      conn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   clk,
		Repo:    repository.Provide(),
		Persons: personrepo.Provide(),
		Teams:   team.ProvideRepository(),
	})
	return svc, conn, clk
}

func activeRoute() programdomain.RouteResolution {
	return programdomain.RouteResolution{
		Program: programdomain.Program{
			ID: 1, TenantID: testTenant, TeamID: testTeamID, PropertyID: testProperty,
		},
	}
}

func TestAssign_UnknownOriginatorCreatesRawLead(t *testing.T) {
	svc, conn, _ := newTestService(t)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID:    testTenant,
		Route:       activeRoute(),
		ContactType: persondomain.ContactPhone,
		FromAddress: "(555) 123-4567",
		FromName:    "Jordan Miles",
	})
	require.NoError(t, err)

	assert.True(t, resolution.CreatedParty)
	assert.True(t, resolution.CreatedPerson)
	assert.Equal(t, domain.StateContact, resolution.Party.State)
	assert.Equal(t, testDispatcher, resolution.Party.OwnerUserID)
	assert.Equal(t, testTeamID, resolution.Party.OwnerTeamID)
	assert.Equal(t, testProperty, resolution.Party.AssignedPropertyID)
	require.NotNil(t, resolution.Party.TeamPropertyProgramID)
	assert.Equal(t, snowflake.ID(1), *resolution.Party.TeamPropertyProgramID)
	assert.Nil(t, resolution.Party.FallbackTeamPropertyProgramID)

	require.Len(t, resolution.Persons, 1)
	assert.Equal(t, "Jordan Miles", resolution.Persons[0].FullName)

	var contact persondomain.ContactInfo
	require.NoError(t, conn.Where("person_id = ?", resolution.Persons[0].ID).First(&contact).Error)
	assert.Equal(t, "5551234567", contact.Value, "contact stored normalized")

	var memberCount int64
	require.NoError(t, conn.Model(&domain.PartyMember{}).
		Where("party_id = ?", resolution.Party.ID).Count(&memberCount).Error)
	assert.EqualValues(t, 1, memberCount)
}

func TestAssign_FallbackRouteRecordsBothPrograms(t *testing.T) {
	svc, _, _ := newTestService(t)

	ended := programdomain.Program{ID: 1, TenantID: testTenant, TeamID: testTeamID, PropertyID: testProperty}
	route := programdomain.RouteResolution{
		Program: programdomain.Program{
			ID: 2, TenantID: testTenant, TeamID: testTeamID, PropertyID: testProperty,
		},
		FallbackUsed:    true,
		OriginalProgram: &ended,
	}

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID:    testTenant,
		Route:       route,
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	require.NotNil(t, resolution.Party.TeamPropertyProgramID)
	assert.Equal(t, snowflake.ID(1), *resolution.Party.TeamPropertyProgramID,
		"the dialed program is recorded as primary")
	require.NotNil(t, resolution.Party.FallbackTeamPropertyProgramID)
	assert.Equal(t, snowflake.ID(2), *resolution.Party.FallbackTeamPropertyProgramID,
		"the program that took the traffic is recorded as fallback")
}

func identityWithMembership(personID snowflake.ID, m persondomain.ActiveMembership) persondomain.Identity {
	return persondomain.Identity{
		Person:        persondomain.Person{ID: personID, TenantID: testTenant},
		ActiveMembers: []persondomain.ActiveMembership{m},
	}
}

func TestAssign_ReusesOpenParty(t *testing.T) {
	svc, conn, _ := newTestService(t)
	require.NoError(t, conn.Create(&team.User{ID: 42, TenantID: testTenant}).Error)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: 42, OwnerTeamID: testTeamID,
	}).Error)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			identityWithMembership(1, persondomain.ActiveMembership{
				MemberID: 200, PartyID: 100, OwnerUserID: 42, OwnerTeamID: testTeamID,
			}),
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	assert.False(t, resolution.CreatedParty)
	assert.False(t, resolution.ReassignedOwner)
	assert.Equal(t, snowflake.ID(100), resolution.Party.ID)
	assert.Equal(t, snowflake.ID(42), resolution.Party.OwnerUserID)

	var partyCount int64
	require.NoError(t, conn.Model(&domain.Party{}).Count(&partyCount).Error)
	assert.EqualValues(t, 1, partyCount, "no duplicate party created")
}

func TestAssign_FutureEndDatePartyStillReused(t *testing.T) {
	svc, conn, clk := newTestService(t)
	ending := clk.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, conn.Create(&team.User{ID: 42, TenantID: testTenant}).Error)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: 42, OwnerTeamID: testTeamID,
		EndDate: &ending,
	}).Error)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			identityWithMembership(1, persondomain.ActiveMembership{
				MemberID: 200, PartyID: 100, OwnerUserID: 42, OwnerTeamID: testTeamID,
				PartyEndDate: &ending,
			}),
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	assert.False(t, resolution.CreatedParty, "party open until its end date passes")
	assert.Equal(t, snowflake.ID(100), resolution.Party.ID)

	var partyCount int64
	require.NoError(t, conn.Model(&domain.Party{}).Count(&partyCount).Error)
	assert.EqualValues(t, 1, partyCount)
}

func TestAssign_InactiveOwnerReassignedToDispatcher(t *testing.T) {
	svc, conn, _ := newTestService(t)
	require.NoError(t, conn.Create(&team.User{ID: 42, TenantID: testTenant, Inactive: true}).Error)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: 42, OwnerTeamID: testTeamID,
	}).Error)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			identityWithMembership(1, persondomain.ActiveMembership{
				MemberID: 200, PartyID: 100, OwnerUserID: 42, OwnerTeamID: testTeamID,
			}),
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	assert.True(t, resolution.ReassignedOwner)
	assert.Equal(t, testDispatcher, resolution.Party.OwnerUserID)

	var stored domain.Party
	require.NoError(t, conn.First(&stored, "id = ?", 100).Error)
	assert.Equal(t, testDispatcher, stored.OwnerUserID, "reassignment is persisted")

	var partyCount int64
	require.NoError(t, conn.Model(&domain.Party{}).Count(&partyCount).Error)
	assert.EqualValues(t, 1, partyCount, "exactly one party remains")
}

func TestAssign_ClosedPartyTreatedAsNoMatch(t *testing.T) {
	svc, conn, clk := newTestService(t)
	closed := clk.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
		EndDate: &closed,
	}).Error)
	require.NoError(t, conn.Create(&persondomain.Person{ID: 1, TenantID: testTenant}).Error)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			identityWithMembership(1, persondomain.ActiveMembership{
				MemberID: 200, PartyID: 100, OwnerUserID: testDispatcher,
				OwnerTeamID: testTeamID, PartyEndDate: &closed,
			}),
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	assert.True(t, resolution.CreatedParty)
	assert.False(t, resolution.CreatedPerson, "known person is reused")
	assert.NotEqual(t, snowflake.ID(100), resolution.Party.ID)
}

func TestAssign_MostRecentlyActivePartyWins(t *testing.T) {
	svc, conn, clk := newTestService(t)
	older := clk.Now().Add(-48 * time.Hour)
	newer := clk.Now().Add(-time.Hour)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
		LastCommAt: &older,
	}).Error)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 101, TenantID: testTenant, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
		LastCommAt: &newer,
	}).Error)

	resolution, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			{
				Person: persondomain.Person{ID: 1, TenantID: testTenant},
				ActiveMembers: []persondomain.ActiveMembership{
					{MemberID: 200, PartyID: 100, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID, LastCommAt: &older},
					{MemberID: 201, PartyID: 101, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID, LastCommAt: &newer},
				},
			},
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
	})
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(101), resolution.Party.ID)
}

func TestAssign_BackfillsEmptyPersonName(t *testing.T) {
	svc, conn, _ := newTestService(t)
	require.NoError(t, conn.Create(&persondomain.Person{ID: 1, TenantID: testTenant}).Error)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
	}).Error)

	_, err := svc.Assign(context.Background(), domain.AssignRequest{
		TenantID: testTenant,
		Route:    activeRoute(),
		Identities: []persondomain.Identity{
			identityWithMembership(1, persondomain.ActiveMembership{
				MemberID: 200, PartyID: 100, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
			}),
		},
		ContactType: persondomain.ContactPhone,
		FromAddress: "5551234567",
		FromName:    "Jordan Miles",
	})
	require.NoError(t, err)

	var person persondomain.Person
	require.NoError(t, conn.First(&person, "id = ?", 1).Error)
	assert.Equal(t, "Jordan Miles", person.FullName)
}

func TestRecordComm_StampsPartyAndBacklink(t *testing.T) {
	svc, conn, clk := newTestService(t)
	require.NoError(t, conn.Create(&domain.Party{
		ID: 100, TenantID: testTenant, OwnerUserID: testDispatcher, OwnerTeamID: testTeamID,
	}).Error)

	require.NoError(t, svc.RecordComm(context.Background(), testTenant, 100, 9001, true))

	var stored domain.Party
	require.NoError(t, conn.First(&stored, "id = ?", 100).Error)
	require.NotNil(t, stored.LastCommAt)
	assert.True(t, stored.LastCommAt.Equal(clk.Now()))
	require.NotNil(t, stored.CreatedFromCommID)
	assert.Equal(t, snowflake.ID(9001), *stored.CreatedFromCommID)

	// a later communication must not overwrite the creation backlink
	require.NoError(t, svc.RecordComm(context.Background(), testTenant, 100, 9002, true))
	require.NoError(t, conn.First(&stored, "id = ?", 100).Error)
	assert.Equal(t, snowflake.ID(9001), *stored.CreatedFromCommID)
}
