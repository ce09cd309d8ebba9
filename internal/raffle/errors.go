package raffle

import "errors"

var (
	ErrNotConnected       = errors.New("wallet not connected")
	ErrInvalidTicketCount = errors.New("ticket count must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrLimitExceeded      = errors.New("ticket limit per wallet exceeded")
	ErrBetInFlight        = errors.New("another bet is already in flight for this session")
	ErrTransactionFailed  = errors.New("transaction failed")

	ErrConnectionFailed = errors.New("wallet connection failed")
	ErrAlreadyConnected = errors.New("wallet already connected")
	ErrConnectInFlight  = errors.New("wallet connection already in progress")
)
