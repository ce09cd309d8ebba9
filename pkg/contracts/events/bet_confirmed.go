package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido pelo raffle-service depois que uma compra de tickets é confirmada.
type BetConfirmed struct {
	BetID     string          `json:"betId"`
	SessionID string          `json:"sessionId"`
	Address   string          `json:"address"`
	Tickets   int             `json:"tickets"`
	Cost      decimal.Decimal `json:"cost"`
	TxHash    string          `json:"txHash"`
	Round     int64           `json:"round"`
	Pot       decimal.Decimal `json:"pot"` // pote depois do commit
	Ts        time.Time       `json:"ts"`
}
