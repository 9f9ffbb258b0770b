package dedup

import (
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Clock     clock.Clock
	IngestCfg *config.IngestConfigHolder
}

// Provide picks redis when configured and falls back to the database ledger
// otherwise. Both give the same at-most-once admit semantics; redis trades
// durability for cheap TTL expiry.
func Provide(p Params) Store {
	if p.Redis != nil {
		p.Log.Info("dedup store: redis")
		return NewRedisStore(p.Redis, p.IngestCfg)
	}
	p.Log.Info("dedup store: database")
	return NewGormStore(p.DB, p.Clock)
}

var Module = fx.Module("dedup",
	fx.Provide(Provide),
)
