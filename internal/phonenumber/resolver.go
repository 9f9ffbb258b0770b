// Package phonenumber is the narrow boundary to the number-provisioning
// subsystem. Ingestion never calls it; only administrative program
// configuration validates direct addresses through it.
package phonenumber

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	"go.uber.org/fx"
)

// Resolver reports whether a raw destination number is currently reserved and
// routable for the tenant.
type Resolver interface {
	IsRoutableNumber(ctx context.Context, tenantID snowflake.ID, number string) (bool, error)
}

// staticResolver accepts any well-formed number. Deployments integrating the
// provisioning subsystem replace this binding.
type staticResolver struct{}

func NewStaticResolver() Resolver {
	return staticResolver{}
}

func (staticResolver) IsRoutableNumber(_ context.Context, _ snowflake.ID, number string) (bool, error) {
	return address.LooksLikePhone(number), nil
}

var Module = fx.Module("phonenumber",
	fx.Provide(NewStaticResolver),
)
