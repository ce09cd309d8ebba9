package raffle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// TxSubmitter é a capacidade externa de enviar a aposta para a "chain".
type TxSubmitter interface {
	SubmitBet(ctx context.Context, amount decimal.Decimal) (txHash string, err error)
}

// Publisher recebe os eventos do engine depois do commit.
type Publisher interface {
	PublishBetConfirmed(ctx context.Context, e events.BetConfirmed) error
	PublishRoundEnded(ctx context.Context, e events.RoundEnded) error
}

// Hooks são callbacks de métricas; todos opcionais.
type Hooks struct {
	OnBetConfirmed func(tickets int, cost decimal.Decimal)
	OnBetRejected  func(reason string)
	OnRoundEnd     func(potReset bool)
	OnPotChanged   func(pot decimal.Decimal)
}

// Receipt é o resultado de uma aposta confirmada.
type Receipt struct {
	BetID       string          `json:"betId"`
	TxHash      string          `json:"txHash"`
	Tickets     int             `json:"tickets"`
	Cost        decimal.Decimal `json:"cost"`
	Round       int64           `json:"round"`
	Balance     decimal.Decimal `json:"balance"`
	Pot         decimal.Decimal `json:"pot"`
	UserBets    int             `json:"userBets"`
	ConfirmedAt time.Time       `json:"confirmedAt"`
}

// RoundView é a visão do pote e do contador atuais.
type RoundView struct {
	Round          int64             `json:"round"`
	EndsAt         time.Time         `json:"endsAt"`
	RemainingMs    int64             `json:"remainingMs"`
	Minutes        int               `json:"minutes"`
	Seconds        int               `json:"seconds"`
	Progress       float64           `json:"progress"`
	Pot            decimal.Decimal   `json:"pot"`
	WinnerShare    decimal.Decimal   `json:"winnerShare"`
	PlatformShare  decimal.Decimal   `json:"platformShare"`
	DevShares      []decimal.Decimal `json:"devShares"`
	TicketPrice    decimal.Decimal   `json:"ticketPrice"`
	MaxPerWallet   int               `json:"maxPerWallet"`
	TokenSymbol    string            `json:"tokenSymbol"`
	LastSettlement *Settlement       `json:"lastSettlement,omitempty"`
}

// Engine aplica as regras de aposta sobre as sessões e mantém o pote.
type Engine struct {
	log       *zap.Logger
	rules     Rules
	split     Split
	clock     *Clock
	submitter TxSubmitter
	publisher Publisher
	hooks     Hooks

	mu             sync.Mutex
	pot            decimal.Decimal
	round          int64
	tickets        map[string]int // address -> tickets confirmados na rodada
	pending        map[string]int // address -> tickets aguardando confirmação
	lastSettlement *Settlement
}

// EngineOption configura o Engine.
type EngineOption func(*Engine)

func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithHooks(h Hooks) EngineOption {
	return func(e *Engine) { e.hooks = h }
}

// NewEngine cria o engine com o pote inicial das regras.
func NewEngine(log *zap.Logger, rules Rules, clock *Clock, submitter TxSubmitter, opts ...EngineOption) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:       log,
		rules:     rules,
		split:     NewSplit(rules),
		clock:     clock,
		submitter: submitter,
		pot:       rules.InitialPot,
		round:     clock.Now().Round,
		tickets:   make(map[string]int),
		pending:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules retorna as regras em uso.
func (e *Engine) Rules() Rules { return e.rules }

// NewSession cria uma sessão com o saldo inicial das regras.
func (e *Engine) NewSession(id string, connector Connector) *Session {
	return NewSession(id, connector, e.rules.InitialBalance, e.log)
}

// PlaceBet valida, segura o novo saldo, aguarda a transação e só então aplica
// saldo, pote e contador de uma vez. Em qualquer erro nada muda.
func (e *Engine) PlaceBet(ctx context.Context, s *Session, ticketCount int) (Receipt, error) {
	s.mu.Lock()
	hold, err := e.validateLocked(s, ticketCount)
	if err != nil {
		s.mu.Unlock()
		e.rejected(err)
		return Receipt{}, err
	}
	s.inFlight = true
	s.mu.Unlock()

	e.log.Debug("bet submitted",
		zap.String("session_id", s.id),
		zap.String("address", hold.address),
		zap.Int("tickets", ticketCount),
		zap.String("cost", hold.cost.String()),
	)

	// único ponto de suspensão
	txHash, txErr := e.submitter.SubmitBet(ctx, hold.cost)

	s.mu.Lock()
	s.inFlight = false
	if txErr != nil {
		e.mu.Lock()
		e.releasePendingLocked(hold.address, hold.tickets)
		e.mu.Unlock()
		s.mu.Unlock()

		err := fmt.Errorf("%w: %w", ErrTransactionFailed, txErr)
		e.log.Warn("bet transaction failed", zap.String("session_id", s.id), zap.Error(txErr))
		e.rejected(err)
		return Receipt{}, err
	}

	receipt, confirmed := e.commitLocked(s, hold, txHash)
	s.mu.Unlock()

	e.log.Info("bet confirmed",
		zap.String("bet_id", receipt.BetID),
		zap.String("address", hold.address),
		zap.Int("tickets", receipt.Tickets),
		zap.String("cost", receipt.Cost.String()),
		zap.String("pot", receipt.Pot.String()),
		zap.Int64("round", receipt.Round),
	)
	if e.hooks.OnBetConfirmed != nil {
		e.hooks.OnBetConfirmed(receipt.Tickets, receipt.Cost)
	}
	if e.hooks.OnPotChanged != nil {
		e.hooks.OnPotChanged(receipt.Pot)
	}
	if e.publisher != nil {
		if err := e.publisher.PublishBetConfirmed(ctx, confirmed); err != nil {
			e.log.Warn("publish bet confirmed failed", zap.String("bet_id", receipt.BetID), zap.Error(err))
		}
	}
	return receipt, nil
}

// heldBet é o estado provisório de uma aposta em voo; nunca é exposto antes do commit.
type heldBet struct {
	address    string
	generation uint64
	tickets    int
	cost       decimal.Decimal
	newBalance decimal.Decimal
	round      int64
}

// validateLocked checa as pré-condições e reserva os tickets pendentes. Requer s.mu.
func (e *Engine) validateLocked(s *Session, ticketCount int) (heldBet, error) {
	if !s.connected {
		return heldBet{}, ErrNotConnected
	}
	if ticketCount <= 0 {
		return heldBet{}, ErrInvalidTicketCount
	}
	if s.inFlight {
		return heldBet{}, ErrBetInFlight
	}

	cost := e.rules.Cost(ticketCount)
	if cost.GreaterThan(s.balance) {
		return heldBet{}, ErrInsufficientFunds
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	used := e.tickets[s.address] + e.pending[s.address]
	if used+ticketCount > e.rules.MaxTicketsPerWallet {
		return heldBet{}, ErrLimitExceeded
	}
	e.pending[s.address] += ticketCount

	return heldBet{
		address:    s.address,
		generation: s.generation,
		tickets:    ticketCount,
		cost:       cost,
		newBalance: s.balance.Sub(cost),
		round:      e.round,
	}, nil
}

// commitLocked aplica a aposta confirmada. Requer s.mu.
func (e *Engine) commitLocked(s *Session, hold heldBet, txHash string) (Receipt, events.BetConfirmed) {
	e.mu.Lock()
	e.releasePendingLocked(hold.address, hold.tickets)
	e.pot = e.pot.Add(hold.cost)

	round := e.round
	if e.rules.CreditPolicy == CreditAtSubmission {
		round = hold.round
	}
	if round == e.round {
		e.tickets[hold.address] += hold.tickets
	}
	pot := e.pot
	userBets := e.tickets[hold.address]
	e.mu.Unlock()

	if s.generation == hold.generation {
		s.balance = hold.newBalance
		s.selection = 1
	} else {
		// a carteira foi desconectada durante a transação; o pote já recebeu o valor
		e.log.Warn("bet confirmed after wallet reset",
			zap.String("session_id", s.id), zap.String("address", hold.address))
	}

	now := e.clock.clock.Now()
	receipt := Receipt{
		BetID:       uuid.NewString(),
		TxHash:      txHash,
		Tickets:     hold.tickets,
		Cost:        hold.cost,
		Round:       round,
		Balance:     s.balance,
		Pot:         pot,
		UserBets:    userBets,
		ConfirmedAt: now,
	}
	confirmed := events.BetConfirmed{
		BetID:     receipt.BetID,
		SessionID: s.id,
		Address:   hold.address,
		Tickets:   hold.tickets,
		Cost:      hold.cost,
		TxHash:    txHash,
		Round:     round,
		Pot:       pot,
		Ts:        now,
	}
	return receipt, confirmed
}

func (e *Engine) releasePendingLocked(address string, tickets int) {
	left := e.pending[address] - tickets
	if left <= 0 {
		delete(e.pending, address)
		return
	}
	e.pending[address] = left
}

func (e *Engine) rejected(err error) {
	if e.hooks.OnBetRejected == nil {
		return
	}
	e.hooks.OnBetRejected(RejectReason(err))
}

// RejectReason traduz um erro de aposta num rótulo curto (métricas/log).
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrInvalidTicketCount):
		return "invalid_ticket_count"
	case errors.Is(err, ErrBetInFlight):
		return "in_flight"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrTransactionFailed):
		return "transaction_failed"
	default:
		return "unknown"
	}
}

// HandleTick reage ao sinal de fim de rodada: zera os contadores por carteira.
// O pote só é fechado e zerado se ResetPotOnRoundEnd estiver ligado.
func (e *Engine) HandleTick(ctx context.Context, tick Tick) {
	if !tick.RoundEnded {
		return
	}

	e.mu.Lock()
	if tick.EndedRound < e.round {
		// fronteira já tratada
		e.mu.Unlock()
		return
	}
	e.tickets = make(map[string]int)
	e.round = tick.EndedRound + 1

	ended := events.RoundEnded{
		Round:         tick.EndedRound,
		EndedAt:       tick.EndedAt,
		Pot:           e.pot,
		WinnerShare:   e.split.WinnerShare(e.pot),
		PlatformShare: e.split.PlatformShare(e.pot),
		DevShares:     e.split.DevShares(e.pot, e.rules.DevWallets),
		PotReset:      e.rules.ResetPotOnRoundEnd,
		Ts:            tick.Now,
	}
	if e.rules.ResetPotOnRoundEnd {
		settlement := e.split.Settle(tick.EndedRound, e.pot, e.rules.DevWallets, tick.Now)
		e.lastSettlement = &settlement
		e.pot = decimal.Zero
	}
	pot := e.pot
	e.mu.Unlock()

	e.log.Info("round ended",
		zap.Int64("round", ended.Round),
		zap.Time("ended_at", ended.EndedAt),
		zap.String("pot", ended.Pot.String()),
		zap.Bool("pot_reset", ended.PotReset),
	)
	if e.hooks.OnRoundEnd != nil {
		e.hooks.OnRoundEnd(ended.PotReset)
	}
	if ended.PotReset && e.hooks.OnPotChanged != nil {
		e.hooks.OnPotChanged(pot)
	}
	if e.publisher != nil {
		if err := e.publisher.PublishRoundEnded(ctx, ended); err != nil {
			e.log.Warn("publish round ended failed", zap.Int64("round", ended.Round), zap.Error(err))
		}
	}
}

// Observe consome os ticks de um Watcher até o canal fechar ou o contexto acabar.
// after (opcional) recebe cada tick depois que o engine o tratou.
func (e *Engine) Observe(ctx context.Context, ticks <-chan Tick, after func(Tick)) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			e.HandleTick(ctx, tick)
			if after != nil {
				after(tick)
			}
		}
	}
}

// Pot retorna o pote atual.
func (e *Engine) Pot() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pot
}

// UserBets retorna os tickets confirmados da carteira da sessão na rodada atual.
func (e *Engine) UserBets(s *Session) int {
	address := s.Snapshot().Address
	if address == "" {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tickets[address]
}

// Round monta a visão da rodada no instante atual do relógio.
func (e *Engine) Round() RoundView {
	tick := e.clock.Now()

	e.mu.Lock()
	pot := e.pot
	var settlement *Settlement
	if e.lastSettlement != nil {
		cp := *e.lastSettlement
		settlement = &cp
	}
	e.mu.Unlock()

	return RoundView{
		Round:          tick.Round,
		EndsAt:         tick.EndsAt,
		RemainingMs:    tick.Remaining.Milliseconds(),
		Minutes:        tick.Minutes,
		Seconds:        tick.Seconds,
		Progress:       tick.Progress,
		Pot:            pot,
		WinnerShare:    e.split.WinnerShare(pot),
		PlatformShare:  e.split.PlatformShare(pot),
		DevShares:      e.split.DevShares(pot, e.rules.DevWallets),
		TicketPrice:    e.rules.TicketPrice,
		MaxPerWallet:   e.rules.MaxTicketsPerWallet,
		TokenSymbol:    e.rules.TokenSymbol,
		LastSettlement: settlement,
	}
}

// PotentialPrize é o prêmio do vencedor se ticketCount tickets forem comprados agora.
func (e *Engine) PotentialPrize(ticketCount int) decimal.Decimal {
	return e.split.PotentialPrize(e.Pot(), e.rules.Cost(ticketCount))
}
