package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateProgramRequest struct {
	Name              string
	DirectAddress     string
	Direction         Direction
	TeamID            string
	PropertyID        string
	FallbackProgramID string
}

type Service interface {
	// Resolve finds the routing target for a destination address. It returns
	// ErrRouteRejected when no program is bound to the address or when the
	// bound program has ended and its fallback cannot take the traffic.
	// Fallback depth is exactly one hop.
	Resolve(ctx context.Context, tenantID snowflake.ID, destination string) (RouteResolution, error)

	Create(ctx context.Context, req CreateProgramRequest) (Program, error)
	List(ctx context.Context) ([]Program, error)
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidAddress  = errors.New("invalid_address")
	ErrInvalidTeam     = errors.New("invalid_team")
	ErrInvalidProperty = errors.New("invalid_property")
	ErrInvalidFallback = errors.New("invalid_fallback")
	ErrAddressTaken    = errors.New("address_taken")
	ErrRouteRejected   = errors.New("route_rejected")
)
