package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
)

// Metrics agrupa os coletores do raffle-service.
type Metrics struct {
	BetsConfirmed   prometheus.Counter
	TicketsSold     prometheus.Counter
	VolumeSold      prometheus.Counter
	BetsRejected    *prometheus.CounterVec
	RoundsEnded     *prometheus.CounterVec
	Pot             prometheus.Gauge
	WSConnections   prometheus.Gauge
	WSMessagesSent  prometheus.Counter
	SessionsEvicted prometheus.Counter
}

// New cria e registra os coletores em reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BetsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raffle_bets_confirmed_total",
			Help: "Apostas confirmadas",
		}),
		TicketsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raffle_tickets_sold_total",
			Help: "Tickets vendidos",
		}),
		VolumeSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raffle_volume_sold_total",
			Help: "Valor total apostado, na moeda da rifa",
		}),
		BetsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_bets_rejected_total",
			Help: "Apostas recusadas por motivo",
		}, []string{"reason"}),
		RoundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raffle_rounds_ended_total",
			Help: "Rodadas encerradas",
		}, []string{"pot_reset"}),
		Pot: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_pot",
			Help: "Valor atual do pote",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raffle_ws_connections",
			Help: "Clientes WebSocket conectados",
		}),
		WSMessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raffle_ws_messages_sent_total",
			Help: "Total de mensagens WS enviadas",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raffle_sessions_evicted_total",
			Help: "Sessões removidas do registro",
		}),
	}
	reg.MustRegister(
		m.BetsConfirmed, m.TicketsSold, m.VolumeSold, m.BetsRejected,
		m.RoundsEnded, m.Pot, m.WSConnections, m.WSMessagesSent, m.SessionsEvicted,
	)
	return m
}

// Hooks liga o engine aos coletores.
func (m *Metrics) Hooks() raffle.Hooks {
	return raffle.Hooks{
		OnBetConfirmed: func(tickets int, cost decimal.Decimal) {
			m.BetsConfirmed.Inc()
			m.TicketsSold.Add(float64(tickets))
			m.VolumeSold.Add(cost.InexactFloat64())
		},
		OnBetRejected: func(reason string) {
			m.BetsRejected.WithLabelValues(reason).Inc()
		},
		OnRoundEnd: func(potReset bool) {
			label := "false"
			if potReset {
				label = "true"
			}
			m.RoundsEnded.WithLabelValues(label).Inc()
		},
		OnPotChanged: func(pot decimal.Decimal) {
			m.Pot.Set(pot.InexactFloat64())
		},
	}
}
