package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// messageWriter é a parte do *kafka.Writer usada aqui.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica os eventos da rifa, um tópico por tipo.
// Apostas usam o endereço como chave; viradas usam o id da rodada.
type KafkaPublisher struct {
	Bets   messageWriter
	Rounds messageWriter
}

func NewKafkaPublisher(bets, rounds messageWriter) *KafkaPublisher {
	return &KafkaPublisher{Bets: bets, Rounds: rounds}
}

func (p *KafkaPublisher) PublishBetConfirmed(ctx context.Context, e events.BetConfirmed) error {
	return write(ctx, p.Bets, e.Address, e, e.Ts)
}

func (p *KafkaPublisher) PublishRoundEnded(ctx context.Context, e events.RoundEnded) error {
	return write(ctx, p.Rounds, strconv.FormatInt(e.Round, 10), e, e.Ts)
}

func write(ctx context.Context, w messageWriter, key string, v any, ts time.Time) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: ts})
}
