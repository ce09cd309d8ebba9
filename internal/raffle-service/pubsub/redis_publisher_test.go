package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

type published struct {
	channel string
	message []byte
}

type fakeRedis struct {
	out []published
	err error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.out = append(f.out, published{channel: channel, message: message.([]byte)})
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisBroadcaster_Publish(t *testing.T) {
	r := &fakeRedis{}
	b := NewRedisBroadcaster(r, "raffle_events_broadcast")

	require.NoError(t, b.PublishBetConfirmed(context.Background(), events.BetConfirmed{
		BetID: "b1", Tickets: 3, Cost: decimal.NewFromInt(15),
	}))
	require.NoError(t, b.PublishRoundEnded(context.Background(), events.RoundEnded{Round: 9}))

	require.Len(t, r.out, 2)
	assert.Equal(t, "raffle_events_broadcast", r.out[0].channel)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(r.out[0].message, &env))
	assert.Equal(t, events.TypeBetConfirmed, env.Type)

	var bet events.BetConfirmed
	require.NoError(t, json.Unmarshal(env.Payload, &bet))
	assert.Equal(t, "b1", bet.BetID)
	assert.True(t, bet.Cost.Equal(decimal.NewFromInt(15)))

	require.NoError(t, json.Unmarshal(r.out[1].message, &env))
	assert.Equal(t, events.TypeRoundEnded, env.Type)
}

func TestRedisBroadcaster_Error(t *testing.T) {
	boom := errors.New("connection refused")
	b := NewRedisBroadcaster(&fakeRedis{err: boom}, "c")

	err := b.PublishRoundEnded(context.Background(), events.RoundEnded{})
	assert.ErrorIs(t, err, boom)
}
