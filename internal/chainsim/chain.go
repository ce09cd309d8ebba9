package chainsim

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrConnectRejected = errors.New("wallet connection rejected")
	ErrTxRejected      = errors.New("transaction rejected")
)

// Options controla latência e taxa de falha do simulador.
type Options struct {
	WalletDelay     time.Duration
	TxDelay         time.Duration
	ConnectFailRate float64 // 0..1
	TxFailRate      float64 // 0..1
	Seed            int64   // 0 = time.Now
}

// DefaultOptions: 1.5s para conectar a carteira, 3s por transação.
func DefaultOptions() Options {
	return Options{
		WalletDelay: 1500 * time.Millisecond,
		TxDelay:     3 * time.Second,
	}
}

// Chain simula a carteira e o contrato: devolve endereços e hashes aleatórios
// depois de um atraso fixo.
type Chain struct {
	clock clockwork.Clock
	opts  Options
	log   *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// New cria o simulador. Em testes use um clockwork.FakeClock.
func New(clock clockwork.Clock, opts Options, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Chain{
		clock: clock,
		opts:  opts,
		log:   log,
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// Connect devolve um endereço 0x + 40 hex.
func (c *Chain) Connect(ctx context.Context) (string, error) {
	if err := c.wait(ctx, c.opts.WalletDelay); err != nil {
		return "", err
	}
	if c.fails(c.opts.ConnectFailRate) {
		c.log.Debug("simulated connect rejection")
		return "", ErrConnectRejected
	}
	return "0x" + c.hex(40), nil
}

// SubmitBet devolve um hash de transação 0x + 64 hex.
func (c *Chain) SubmitBet(ctx context.Context, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", errors.New("amount must be positive")
	}
	if err := c.wait(ctx, c.opts.TxDelay); err != nil {
		return "", err
	}
	if c.fails(c.opts.TxFailRate) {
		c.log.Debug("simulated tx rejection", zap.String("amount", amount.String()))
		return "", ErrTxRejected
	}
	return "0x" + c.hex(64), nil
}

func (c *Chain) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func (c *Chain) fails(rate float64) bool {
	if rate <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Float64() < rate
}

func (c *Chain) hex(n int) string {
	const digits = "0123456789abcdef"
	c.mu.Lock()
	defer c.mu.Unlock()
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(digits[c.rnd.Intn(len(digits))])
	}
	return b.String()
}
