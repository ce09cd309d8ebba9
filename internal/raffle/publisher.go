package raffle

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// Publishers repassa cada evento para todos os publishers da lista.
// Uma falha não impede os demais; os erros voltam juntos.
type Publishers []Publisher

func (ps Publishers) PublishBetConfirmed(ctx context.Context, e events.BetConfirmed) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishBetConfirmed(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ps Publishers) PublishRoundEnded(ctx context.Context, e events.RoundEnded) error {
	var errs []error
	for _, p := range ps {
		if err := p.PublishRoundEnded(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Event converte o tick no formato enviado aos clientes.
func (t Tick) Event(pot decimal.Decimal) events.RoundTick {
	return events.RoundTick{
		Round:       t.Round,
		EndsAt:      t.EndsAt,
		RemainingMs: t.Remaining.Milliseconds(),
		Minutes:     t.Minutes,
		Seconds:     t.Seconds,
		Progress:    t.Progress,
		Pot:         pot,
		RoundEnded:  t.RoundEnded,
	}
}
