package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

const writeWait = 2 * time.Second

// Channels são os canais que um cliente pode assinar.
var Channels = []string{events.TypeTick, events.TypeBetConfirmed, events.TypeRoundEnded}

// client serializa as escritas de uma conexão; gorilla não aceita escritas concorrentes.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub gerencia conexões WebSocket e as assinaturas por canal
// subs: mapeia canal para o conjunto de clientes inscritos
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}

	// métricas opcionais
	OnConnect    func()
	OnDisconnect func()
	OnSent       func()
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em canais e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn}
	defer conn.Close()

	if h.OnConnect != nil {
		h.OnConnect()
	}
	defer func() {
		h.removeAll(c)
		if h.OnDisconnect != nil {
			h.OnDisconnect()
		}
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(c, msg.Channel)
		case "unsubscribe":
			h.unsubscribe(c, msg.Channel)
		case "ping":
			b, _ := json.Marshal(map[string]string{"type": "pong"})
			_ = c.write(b)
		}
	}
}

func (h *Hub) subscribe(c *client, channel string) {
	channels := []string{channel}
	if channel == "" {
		channels = Channels
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		if _, ok := h.subs[ch]; !ok {
			h.subs[ch] = make(map[*client]struct{})
		}
		h.subs[ch][c] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[channel]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, channel)
		}
	}
}

// removeAll tira a conexão de todas as assinaturas ao desconectar
func (h *Hub) removeAll(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, ch)
		}
	}
}

// Subscribers conta os clientes de um canal.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Broadcast envia o envelope para todos os clientes inscritos no canal env.Type
func (h *Hub) Broadcast(env events.Envelope) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[env.Type]))
	for c := range h.subs[env.Type] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(env)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	for _, c := range targets {
		if err := c.write(b); err != nil {
			h.log.Debug("ws write failed", zap.Error(err))
			_ = c.conn.Close() // o loop de leitura remove o cliente
			continue
		}
		if h.OnSent != nil {
			h.OnSent()
		}
	}
}
