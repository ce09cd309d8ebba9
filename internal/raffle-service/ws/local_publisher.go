package ws

import (
	"context"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// LocalPublisher entrega os eventos do engine direto ao hub desta réplica.
// Usado quando não há Redis para fazer o fan-out entre réplicas.
type LocalPublisher struct {
	Hub Broadcaster
}

func (p LocalPublisher) PublishBetConfirmed(_ context.Context, e events.BetConfirmed) error {
	return p.broadcast(events.TypeBetConfirmed, e)
}

func (p LocalPublisher) PublishRoundEnded(_ context.Context, e events.RoundEnded) error {
	return p.broadcast(events.TypeRoundEnded, e)
}

func (p LocalPublisher) broadcast(typ string, payload any) error {
	env, err := events.Wrap(typ, payload)
	if err != nil {
		return err
	}
	p.Hub.Broadcast(env)
	return nil
}
