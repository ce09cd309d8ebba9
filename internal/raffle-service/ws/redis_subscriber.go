package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// Broadcaster recebe os envelopes vindos do Redis.
type Broadcaster interface {
	Broadcast(env events.Envelope)
}

// RunRedisSubscriber escuta o canal Redis Pub/Sub e repassa cada envelope
// para o hub até ctx acabar.
func RunRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub Broadcaster) error {
	sub := r.Subscribe(ctx, channel)
	defer sub.Close()

	// garante a assinatura antes de seguir
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	Relay(ctx, log, sub.Channel(), hub)
	return nil
}

// Relay desserializa as mensagens e chama hub.Broadcast.
func Relay(ctx context.Context, log *zap.Logger, ch <-chan *redis.Message, hub Broadcaster) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			var env events.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn("ws subscriber unmarshal error", zap.Error(err))
				continue
			}
			hub.Broadcast(env)
		}
	}
}
