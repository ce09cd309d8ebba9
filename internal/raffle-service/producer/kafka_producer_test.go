package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	bets, rounds := &fakeWriter{}, &fakeWriter{}
	p := NewKafkaPublisher(bets, rounds)
	ts := time.Date(2024, 3, 1, 10, 12, 0, 0, time.UTC)

	require.NoError(t, p.PublishBetConfirmed(context.Background(), events.BetConfirmed{
		BetID: "b1", Address: "0xabc", Tickets: 3, Cost: decimal.NewFromInt(15), Ts: ts,
	}))
	require.NoError(t, p.PublishRoundEnded(context.Background(), events.RoundEnded{Round: 947744}))

	require.Len(t, bets.msgs, 1)
	assert.Equal(t, "0xabc", string(bets.msgs[0].Key))
	assert.Equal(t, ts, bets.msgs[0].Time)

	var got events.BetConfirmed
	require.NoError(t, json.Unmarshal(bets.msgs[0].Value, &got))
	assert.Equal(t, "b1", got.BetID)
	assert.True(t, got.Cost.Equal(decimal.NewFromInt(15)))

	require.Len(t, rounds.msgs, 1)
	assert.Equal(t, "947744", string(rounds.msgs[0].Key))
	assert.False(t, rounds.msgs[0].Time.IsZero())
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewKafkaPublisher(&fakeWriter{err: boom}, &fakeWriter{})

	err := p.PublishBetConfirmed(context.Background(), events.BetConfirmed{})
	assert.ErrorIs(t, err, boom)
}
