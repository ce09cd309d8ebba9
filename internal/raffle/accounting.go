package raffle

import (
	"time"

	"github.com/shopspring/decimal"
)

// Precisão do token (USDC usa 6 casas).
const currencyPlaces = 6

// Split divide o pote entre vencedor e plataforma.
type Split struct {
	Winner   decimal.Decimal
	Platform decimal.Decimal
}

func NewSplit(r Rules) Split {
	return Split{Winner: r.WinnerPercentage, Platform: r.PlatformPercentage}
}

// WinnerShare retorna a parte do vencedor.
func (s Split) WinnerShare(pot decimal.Decimal) decimal.Decimal {
	return pot.Mul(s.Winner)
}

// PlatformShare retorna a taxa da plataforma.
func (s Split) PlatformShare(pot decimal.Decimal) decimal.Decimal {
	return pot.Mul(s.Platform)
}

// DevShares reparte a taxa da plataforma entre n carteiras de dev.
// Cada parte é truncada na precisão do token e o resto vai para a primeira,
// então a soma das partes é sempre igual a PlatformShare(pot).
func (s Split) DevShares(pot decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}
	fee := s.PlatformShare(pot)
	each := fee.Div(decimal.NewFromInt(int64(n))).Truncate(currencyPlaces)

	shares := make([]decimal.Decimal, n)
	distributed := decimal.Zero
	for i := 1; i < n; i++ {
		shares[i] = each
		distributed = distributed.Add(each)
	}
	shares[0] = fee.Sub(distributed)
	return shares
}

// PotentialPrize é o prêmio do vencedor se a compra de cost entrar no pote.
func (s Split) PotentialPrize(pot, cost decimal.Decimal) decimal.Decimal {
	return s.WinnerShare(pot.Add(cost))
}

// Settlement é o fechamento de uma rodada quando o pote é zerado na virada.
type Settlement struct {
	Round     int64
	Pot       decimal.Decimal
	Winner    decimal.Decimal
	Platform  decimal.Decimal
	DevShares []decimal.Decimal
	SettledAt time.Time
}

// Settle calcula o fechamento de uma rodada.
func (s Split) Settle(round int64, pot decimal.Decimal, devWallets int, at time.Time) Settlement {
	return Settlement{
		Round:     round,
		Pot:       pot,
		Winner:    s.WinnerShare(pot),
		Platform:  s.PlatformShare(pot),
		DevShares: s.DevShares(pot, devWallets),
		SettledAt: at,
	}
}
