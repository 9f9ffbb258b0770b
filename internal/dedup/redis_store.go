package dedup

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client    *redis.Client
	ingestCfg *config.IngestConfigHolder
}

func NewRedisStore(client *redis.Client, ingestCfg *config.IngestConfigHolder) Store {
	return &redisStore{client: client, ingestCfg: ingestCfg}
}

func (s *redisStore) Admit(ctx context.Context, tenantID snowflake.ID, messageID string) (bool, error) {
	return s.client.SetNX(ctx, dedupKey(tenantID, messageID), 1, s.ingestCfg.Current().DedupTTL).Result()
}

func (s *redisStore) Forget(ctx context.Context, tenantID snowflake.ID, messageID string) error {
	return s.client.Del(ctx, dedupKey(tenantID, messageID)).Err()
}

func dedupKey(tenantID snowflake.ID, messageID string) string {
	return "dedup:" + tenantID.String() + ":" + messageID
}
