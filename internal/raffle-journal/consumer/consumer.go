package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/topics"
)

// Reader é o subconjunto do kafka.Reader usado pelo processor.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Writer recebe as mensagens que esgotaram as tentativas.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Store persiste os eventos da rifa.
type Store interface {
	SaveBet(ctx context.Context, e events.BetConfirmed) error
	SaveRoundEnd(ctx context.Context, e events.RoundEnded) error
}

// Processor consome apostas confirmadas e viradas de rodada e grava o journal.
// O offset só é commitado depois de persistir ou mandar para a DLQ; se nenhum
// dos dois der certo a mesma mensagem é tentada de novo.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Store  Store
	DLQ    Writer // opcional

	// tópicos configurados; vazio usa os nomes padrão
	BetTopic   string
	RoundTopic string

	Retries int
	Backoff time.Duration
	// Redeliver é a espera antes de repetir uma mensagem não tratada (padrão 1s).
	Redeliver time.Duration

	OnConsumed func(topic string)
	OnPersist  func(topic string)
	OnDLQ      func(topic string)
	OnError    func(stage string)
}

// Run roda até o contexto ser cancelado.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.fail("read")
			if !sleep(ctx, 500*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed(m.Topic)
		}

		if err := p.handleUntilDone(ctx, m); err != nil {
			return err
		}

		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.fail("commit")
		}
	}
}

// handleUntilDone repete Handle até a mensagem ser persistida ou ir para a DLQ.
// Só retorna erro quando o contexto acaba.
func (p *Processor) handleUntilDone(ctx context.Context, m kafka.Message) error {
	for {
		err := p.Handle(ctx, m)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.Log.Error("journal message not handled, retrying",
			zap.String("topic", m.Topic),
			zap.Int64("offset", m.Offset),
			zap.Error(err),
		)
		p.fail("handle")

		wait := p.Redeliver
		if wait <= 0 {
			wait = time.Second
		}
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// Handle persiste uma mensagem com retry; falha definitiva vai para a DLQ.
// Mensagem indecodificável vai direto para a DLQ.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	save, err := p.decode(m)
	if err != nil {
		p.Log.Warn("invalid message", zap.String("topic", m.Topic), zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m, err)
	}

	attempts := max(p.Retries, 0) + 1
	for i := 0; i < attempts; i++ {
		if i > 0 && !sleep(ctx, p.Backoff*time.Duration(i)) {
			return ctx.Err()
		}
		if err = save(ctx); err == nil {
			if p.OnPersist != nil {
				p.OnPersist(m.Topic)
			}
			return nil
		}
		p.Log.Warn("journal persist failed",
			zap.String("topic", m.Topic),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		p.fail("persist")
	}
	return p.deadLetter(ctx, m, err)
}

func (p *Processor) decode(m kafka.Message) (func(context.Context) error, error) {
	switch m.Topic {
	case orDefault(p.BetTopic, topics.BetConfirmed):
		var e events.BetConfirmed
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, err
		}
		if e.BetID == "" {
			return nil, fmt.Errorf("bet event without id")
		}
		return func(ctx context.Context) error { return p.Store.SaveBet(ctx, e) }, nil
	case orDefault(p.RoundTopic, topics.RoundEnded):
		var e events.RoundEnded
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return p.Store.SaveRoundEnd(ctx, e) }, nil
	default:
		return nil, fmt.Errorf("unexpected topic %q", m.Topic)
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, cause error) error {
	if p.DLQ == nil {
		return cause
	}
	dl := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(slices.Clone(m.Headers),
			kafka.Header{Key: "source_topic", Value: []byte(m.Topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
		Time: time.Now(),
	}
	if err := p.DLQ.WriteMessages(ctx, dl); err != nil {
		p.fail("dlq")
		return fmt.Errorf("dlq write: %w (cause: %v)", err, cause)
	}
	if p.OnDLQ != nil {
		p.OnDLQ(m.Topic)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
