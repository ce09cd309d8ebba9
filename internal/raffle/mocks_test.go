package raffle

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// stubConnector devolve um endereço fixo ou um erro. Se release não for nil,
// bloqueia até ser fechado.
type stubConnector struct {
	address string
	err     error
	started chan struct{}
	release chan struct{}
}

func (c *stubConnector) Connect(ctx context.Context) (string, error) {
	if c.started != nil {
		close(c.started)
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.address, c.err
}

// stubSubmitter simula a transação com o mesmo esquema de bloqueio.
type stubSubmitter struct {
	mu      sync.Mutex
	hash    string
	err     error
	calls   []decimal.Decimal
	started chan struct{}
	release chan struct{}
}

func (s *stubSubmitter) SubmitBet(ctx context.Context, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, amount)
	started, release := s.started, s.release
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash, s.err
}

func (s *stubSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []events.BetConfirmed
	ended     []events.RoundEnded
}

func (p *recordingPublisher) PublishBetConfirmed(_ context.Context, e events.BetConfirmed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, e)
	return nil
}

func (p *recordingPublisher) PublishRoundEnded(_ context.Context, e events.RoundEnded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, e)
	return nil
}
