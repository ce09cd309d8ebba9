package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evento emitido na virada de rodada.
type RoundEnded struct {
	Round         int64             `json:"round"`
	EndedAt       time.Time         `json:"endedAt"`
	Pot           decimal.Decimal   `json:"pot"`
	WinnerShare   decimal.Decimal   `json:"winnerShare"`
	PlatformShare decimal.Decimal   `json:"platformShare"`
	DevShares     []decimal.Decimal `json:"devShares,omitempty"`
	PotReset      bool              `json:"potReset"` // true se o pote foi fechado e zerado
	Ts            time.Time         `json:"ts"`
}
