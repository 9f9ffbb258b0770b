package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ResolveIdentities finds every known person attached to the originator
	// address, each carrying their open party memberships. An empty result is
	// not an error: the caller treats the originator as unknown.
	ResolveIdentities(ctx context.Context, tenantID snowflake.ID, contactType ContactType, value string) ([]Identity, error)

	// IsSpamSource reports whether the originator address is blacklisted for
	// the tenant. Any matching contact record marked spam blacklists the
	// address as a whole.
	IsSpamSource(ctx context.Context, tenantID snowflake.ID, contactType ContactType, value string) (bool, error)

	MarkSpam(ctx context.Context, contactType ContactType, value string, spam bool) error
}

var (
	ErrInvalidTenant  = errors.New("invalid_tenant")
	ErrInvalidContact = errors.New("invalid_contact")
)
