package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
)

// AssignRequest carries everything the assignment decision needs: the
// resolved route, the identities matched to the originator, and the raw
// originator address for lazy person creation.
type AssignRequest struct {
	TenantID    snowflake.ID
	Route       programdomain.RouteResolution
	Identities  []persondomain.Identity
	ContactType persondomain.ContactType
	FromAddress string
	FromName    string
}

type Service interface {
	// Assign picks or creates the party that receives the message. The
	// decision is made against open memberships only: a closed party is
	// treated as if the person had no party at all.
	Assign(ctx context.Context, req AssignRequest) (Resolution, error)

	// RecordComm stamps the party after the communication is persisted:
	// last_comm_at always, created_from_comm_id only when this message
	// created the party.
	RecordComm(ctx context.Context, tenantID, partyID, commID snowflake.ID, createdParty bool) error
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidRoute   = errors.New("invalid_route")
	ErrInvalidContact = errors.New("invalid_contact")
	ErrTeamNotFound   = errors.New("team_not_found")
)
