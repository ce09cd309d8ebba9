package raffle

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreditPolicy define a qual rodada uma aposta confirmada depois da virada é creditada.
type CreditPolicy string

const (
	// CreditAtConfirmation credita os tickets na rodada corrente no momento da confirmação.
	CreditAtConfirmation CreditPolicy = "confirmation"
	// CreditAtSubmission mantém os tickets na rodada em que a aposta foi submetida;
	// se essa rodada já acabou, o contador da carteira não é incrementado.
	CreditAtSubmission CreditPolicy = "submission"
)

// Rules reúne as constantes de negócio da rifa, fixadas no start do processo.
type Rules struct {
	RoundDuration       time.Duration
	TicketPrice         decimal.Decimal
	MaxTicketsPerWallet int
	WinnerPercentage    decimal.Decimal
	PlatformPercentage  decimal.Decimal
	InitialBalance      decimal.Decimal
	InitialPot          decimal.Decimal
	DevWallets          int
	TokenSymbol         string

	CreditPolicy       CreditPolicy
	ResetPotOnRoundEnd bool
}

// DefaultRules retorna os valores do protocolo: rodadas de 30 min, ticket a 5 USDC,
// 100 tickets por carteira, 75% para o vencedor e 25% de taxa dividida entre 2 devs.
func DefaultRules() Rules {
	return Rules{
		RoundDuration:       30 * time.Minute,
		TicketPrice:         decimal.NewFromInt(5),
		MaxTicketsPerWallet: 100,
		WinnerPercentage:    decimal.RequireFromString("0.75"),
		PlatformPercentage:  decimal.RequireFromString("0.25"),
		InitialBalance:      decimal.NewFromInt(1000),
		InitialPot:          decimal.NewFromInt(12500),
		DevWallets:          2,
		TokenSymbol:         "USDC",
		CreditPolicy:        CreditAtConfirmation,
	}
}

// Validate garante que as regras são coerentes; percentuais precisam somar exatamente 1.
func (r Rules) Validate() error {
	var errs []error
	if r.RoundDuration < time.Second {
		errs = append(errs, fmt.Errorf("round duration must be at least 1s, got %s", r.RoundDuration))
	}
	if !r.TicketPrice.IsPositive() {
		errs = append(errs, fmt.Errorf("ticket price must be positive, got %s", r.TicketPrice))
	}
	if r.MaxTicketsPerWallet <= 0 {
		errs = append(errs, fmt.Errorf("max tickets per wallet must be positive, got %d", r.MaxTicketsPerWallet))
	}
	if r.WinnerPercentage.IsNegative() || r.PlatformPercentage.IsNegative() {
		errs = append(errs, errors.New("percentages must not be negative"))
	}
	if sum := r.WinnerPercentage.Add(r.PlatformPercentage); !sum.Equal(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("winner + platform percentages must sum to 1, got %s", sum))
	}
	if r.InitialBalance.IsNegative() {
		errs = append(errs, fmt.Errorf("initial balance must not be negative, got %s", r.InitialBalance))
	}
	if r.InitialPot.IsNegative() {
		errs = append(errs, fmt.Errorf("initial pot must not be negative, got %s", r.InitialPot))
	}
	if r.DevWallets < 1 {
		errs = append(errs, fmt.Errorf("dev wallets must be at least 1, got %d", r.DevWallets))
	}
	switch r.CreditPolicy {
	case CreditAtConfirmation, CreditAtSubmission:
	default:
		errs = append(errs, fmt.Errorf("unknown credit policy %q", r.CreditPolicy))
	}
	return errors.Join(errs...)
}

// Cost retorna o custo de n tickets.
func (r Rules) Cost(tickets int) decimal.Decimal {
	return r.TicketPrice.Mul(decimal.NewFromInt(int64(tickets)))
}
