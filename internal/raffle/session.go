package raffle

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Connector é a capacidade externa de conectar uma carteira.
type Connector interface {
	Connect(ctx context.Context) (address string, err error)
}

// WalletState é a visão pública de uma sessão.
type WalletState struct {
	SessionID    string          `json:"sessionId"`
	Address      string          `json:"address,omitempty"`
	IsConnected  bool            `json:"isConnected"`
	IsConnecting bool            `json:"isConnecting"`
	Balance      decimal.Decimal `json:"balance"`
	Selection    int             `json:"selection"`
	BetInFlight  bool            `json:"betInFlight"`
}

// Session guarda o estado de uma carteira conectada (ou não).
// Só a própria sessão e o Engine agindo por ela alteram esses campos.
type Session struct {
	id             string
	connector      Connector
	initialBalance decimal.Decimal
	log            *zap.Logger

	mu         sync.Mutex
	address    string
	connected  bool
	connecting bool
	balance    decimal.Decimal
	selection  int
	inFlight   bool
	generation uint64 // muda a cada connect/disconnect
}

// NewSession cria uma sessão desconectada.
func NewSession(id string, connector Connector, initialBalance decimal.Decimal, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		id:             id,
		connector:      connector,
		initialBalance: initialBalance,
		log:            log,
		balance:        decimal.Zero,
		selection:      1,
	}
}

func (s *Session) ID() string { return s.id }

// Connect chama o conector e, em caso de sucesso, credita o saldo inicial.
// Em falha a sessão volta ao estado desconectado; não há retry.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.connected:
		s.mu.Unlock()
		return ErrAlreadyConnected
	case s.connecting:
		s.mu.Unlock()
		return ErrConnectInFlight
	}
	s.connecting = true
	gen := s.generation
	s.mu.Unlock()

	address, err := s.connector.Connect(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// disconnect chegou enquanto o connect estava em andamento
		return fmt.Errorf("%w: session reset during connect", ErrConnectionFailed)
	}
	s.connecting = false
	if err != nil {
		s.log.Warn("wallet connect failed", zap.String("session_id", s.id), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if address == "" {
		s.log.Warn("wallet connect returned empty address", zap.String("session_id", s.id))
		return fmt.Errorf("%w: empty address", ErrConnectionFailed)
	}
	s.address = address
	s.connected = true
	s.balance = s.initialBalance
	s.generation++
	s.log.Info("wallet connected", zap.String("session_id", s.id), zap.String("address", address))
	return nil
}

// Disconnect volta incondicionalmente ao estado inicial.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = ""
	s.connected = false
	s.connecting = false
	s.balance = decimal.Zero
	s.selection = 1
	s.generation++
}

// Snapshot retorna uma cópia do estado atual.
func (s *Session) Snapshot() WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() WalletState {
	return WalletState{
		SessionID:    s.id,
		Address:      s.address,
		IsConnected:  s.connected,
		IsConnecting: s.connecting,
		Balance:      s.balance,
		Selection:    s.selection,
		BetInFlight:  s.inFlight,
	}
}
