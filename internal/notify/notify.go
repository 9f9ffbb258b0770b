package notify

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RoutedEvent tells interested frontends that a communication landed in a
// party. WSUsers lists the users whose inbox view should refresh.
type RoutedEvent struct {
	PartyID         snowflake.ID   `json:"party_id"`
	CommunicationID snowflake.ID   `json:"communication_id"`
	ThreadID        string         `json:"thread_id"`
	WSUsers         []snowflake.ID `json:"ws_users"`
}

type Publisher interface {
	CommRouted(ctx context.Context, tenantID snowflake.ID, event RoutedEvent) error
}

type redisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func (p *redisPublisher) CommRouted(ctx context.Context, tenantID snowflake.ID, event RoutedEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := "comm.routed." + tenantID.String()
	if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
		// notification is best effort, the communication is already durable
		p.log.Warn("publish failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) CommRouted(context.Context, snowflake.ID, RoutedEvent) error { return nil }

func Provide(client *redis.Client, log *zap.Logger) Publisher {
	if client == nil {
		return noopPublisher{}
	}
	return &redisPublisher{client: client, log: log.Named("notify")}
}

var Module = fx.Module("notify",
	fx.Provide(Provide),
)
