package ingest

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/leaseline/leaseline/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OriginatorLock serializes processing per (tenant, originator address) so
// two workers never race to create two parties for one new originator. The
// party tables' unique constraints are the second line of defense when the
// lock is unavailable.
type OriginatorLock interface {
	// Acquire returns a release func when the lock was taken. acquired=false
	// with a nil error means another worker holds it.
	Acquire(ctx context.Context, tenantID snowflake.ID, originator string) (release func(context.Context), acquired bool, err error)
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisLock struct {
	client    *redis.Client
	log       *zap.Logger
	ingestCfg *config.IngestConfigHolder
}

func (l *redisLock) Acquire(ctx context.Context, tenantID snowflake.ID, originator string) (func(context.Context), bool, error) {
	key := "origlock:" + tenantID.String() + ":" + originator
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ingestCfg.Current().OriginatorLockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("originator lock release failed, TTL will expire it",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return release, true, nil
}

type noopLock struct{}

func (noopLock) Acquire(context.Context, snowflake.ID, string) (func(context.Context), bool, error) {
	return func(context.Context) {}, true, nil
}

func ProvideLock(client *redis.Client, log *zap.Logger, ingestCfg *config.IngestConfigHolder) OriginatorLock {
	if client == nil {
		return noopLock{}
	}
	return &redisLock{client: client, log: log.Named("ingest.lock"), ingestCfg: ingestCfg}
}
