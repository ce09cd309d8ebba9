package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) events.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env events.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	var sent atomic.Int32
	h := NewHub(zap.NewNop(), func(*http.Request) bool { return true })
	h.OnSent = func() { sent.Add(1) }
	conn := dial(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Channel: events.TypeRoundEnded}))
	require.Eventually(t, func() bool { return h.Subscribers(events.TypeRoundEnded) == 1 }, time.Second, 5*time.Millisecond)

	// canal sem assinatura não chega
	tick, err := events.Wrap(events.TypeTick, events.RoundTick{Round: 1})
	require.NoError(t, err)
	h.Broadcast(tick)

	ended, err := events.Wrap(events.TypeRoundEnded, events.RoundEnded{Round: 42})
	require.NoError(t, err)
	h.Broadcast(ended)

	env := readEnvelope(t, conn)
	assert.Equal(t, events.TypeRoundEnded, env.Type)
	var payload events.RoundEnded
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, int64(42), payload.Round)
	assert.Equal(t, int32(1), sent.Load())
}

func TestHub_SubscribeAllAndPing(t *testing.T) {
	h := NewHub(nil, func(*http.Request) bool { return true })
	conn := dial(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe"}))
	require.Eventually(t, func() bool {
		for _, ch := range Channels {
			if h.Subscribers(ch) != 1 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong map[string]string
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "unsubscribe", Channel: events.TypeTick}))
	require.Eventually(t, func() bool { return h.Subscribers(events.TypeTick) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.Subscribers(events.TypeBetConfirmed))
}

func TestHub_DisconnectRemovesSubscriptions(t *testing.T) {
	var connected, disconnected atomic.Int32
	h := NewHub(nil, func(*http.Request) bool { return true })
	h.OnConnect = func() { connected.Add(1) }
	h.OnDisconnect = func() { disconnected.Add(1) }
	conn := dial(t, h)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", Channel: events.TypeTick}))
	require.Eventually(t, func() bool { return h.Subscribers(events.TypeTick) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Subscribers(events.TypeTick) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), connected.Load())
	assert.Eventually(t, func() bool { return disconnected.Load() == 1 }, time.Second, 5*time.Millisecond)
}

type recordingHub struct {
	got chan events.Envelope
}

func (r *recordingHub) Broadcast(env events.Envelope) { r.got <- env }

func TestRelay(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	hub := &recordingHub{got: make(chan events.Envelope, 3)}

	env, err := events.Wrap(events.TypeBetConfirmed, events.BetConfirmed{BetID: "b1"})
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)

	ch <- &redis.Message{Payload: "not json"}
	ch <- nil
	ch <- &redis.Message{Payload: string(b)}
	close(ch)

	Relay(context.Background(), zap.NewNop(), ch, hub)

	require.Len(t, hub.got, 1)
	assert.Equal(t, events.TypeBetConfirmed, (<-hub.got).Type)
}

func TestLocalPublisher(t *testing.T) {
	hub := &recordingHub{got: make(chan events.Envelope, 2)}
	p := LocalPublisher{Hub: hub}

	require.NoError(t, p.PublishBetConfirmed(context.Background(), events.BetConfirmed{BetID: "b1"}))
	require.NoError(t, p.PublishRoundEnded(context.Background(), events.RoundEnded{Round: 9}))

	assert.Equal(t, events.TypeBetConfirmed, (<-hub.got).Type)
	env := <-hub.got
	assert.Equal(t, events.TypeRoundEnded, env.Type)
	var ended events.RoundEnded
	require.NoError(t, json.Unmarshal(env.Payload, &ended))
	assert.Equal(t, int64(9), ended.Round)
}
