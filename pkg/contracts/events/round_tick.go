package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amostra do contador enviada aos clientes WebSocket a cada segundo.
type RoundTick struct {
	Round       int64           `json:"round"`
	EndsAt      time.Time       `json:"endsAt"`
	RemainingMs int64           `json:"remainingMs"`
	Minutes     int             `json:"minutes"`
	Seconds     int             `json:"seconds"`
	Progress    float64         `json:"progress"`
	Pot         decimal.Decimal `json:"pot"`
	RoundEnded  bool            `json:"roundEnded,omitempty"`
}
