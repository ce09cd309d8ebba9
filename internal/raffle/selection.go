package raffle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// SelectionAction ajusta a quantidade de tickets pendente de uma sessão.
type SelectionAction string

const (
	SelectIncrement SelectionAction = "inc"
	SelectDecrement SelectionAction = "dec"
	SelectMax       SelectionAction = "max"
)

// AdjustSelection aplica a política de seleção: incrementa só enquanto
// seleção + tickets da rodada < limite, decrementa até 1 e "max" escolhe o
// menor entre o que resta do limite e o que o saldo paga.
func (e *Engine) AdjustSelection(s *Session, action SelectionAction) (int, error) {
	userBets := e.UserBets(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case SelectIncrement:
		if s.selection+userBets < e.rules.MaxTicketsPerWallet {
			s.selection++
		}
	case SelectDecrement:
		if s.selection > 1 {
			s.selection--
		}
	case SelectMax:
		s.selection = maxSelection(e.rules, userBets, s.balance)
	default:
		return s.selection, fmt.Errorf("unknown selection action %q", action)
	}
	return s.selection, nil
}

// PlaceSelected compra a quantidade selecionada na sessão.
func (e *Engine) PlaceSelected(ctx context.Context, s *Session) (Receipt, error) {
	return e.PlaceBet(ctx, s, s.Snapshot().Selection)
}

func maxSelection(r Rules, userBets int, balance decimal.Decimal) int {
	remaining := r.MaxTicketsPerWallet - userBets
	// quociente inteiro; Div arredondaria para cima perto de um múltiplo do preço
	q, _ := balance.QuoRem(r.TicketPrice, 0)
	affordable := int(q.IntPart())
	n := min(remaining, affordable, r.MaxTicketsPerWallet)
	if n < 1 {
		return 1
	}
	return n
}
