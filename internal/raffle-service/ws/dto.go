package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Channel: tick | bet_confirmed | round_ended; vazio em subscribe assina todos
type ClientMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}
