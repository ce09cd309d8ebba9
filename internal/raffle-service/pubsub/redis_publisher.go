package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// publishClient é a parte do *redis.Client usada aqui.
type publishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisBroadcaster leva os eventos do engine para o canal Redis; cada réplica
// do raffle-service assina o canal e repassa aos seus clientes WebSocket.
type RedisBroadcaster struct {
	r       publishClient
	channel string
}

func NewRedisBroadcaster(r publishClient, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishBetConfirmed(ctx context.Context, e events.BetConfirmed) error {
	return b.publish(ctx, events.TypeBetConfirmed, e)
}

func (b *RedisBroadcaster) PublishRoundEnded(ctx context.Context, e events.RoundEnded) error {
	return b.publish(ctx, events.TypeRoundEnded, e)
}

func (b *RedisBroadcaster) publish(ctx context.Context, typ string, payload any) error {
	env, err := events.Wrap(typ, payload)
	if err != nil {
		return fmt.Errorf("wrap %s: %w", typ, err)
	}
	msg, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := b.r.Publish(ctx, b.channel, msg).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", typ, err)
	}
	return nil
}
