package events

import "encoding/json"

// Tipos de mensagem entregues aos clientes WebSocket e ao canal Redis.
const (
	TypeTick         = "tick"
	TypeBetConfirmed = "bet_confirmed"
	TypeRoundEnded   = "round_ended"
)

// Envelope embrulha qualquer evento com o seu tipo.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap serializa payload dentro de um Envelope.
func Wrap(typ string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, Payload: b}, nil
}
