package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestHooks(t *testing.T) {
	m := New(prometheus.NewRegistry())
	h := m.Hooks()

	h.OnBetConfirmed(3, decimal.NewFromInt(15))
	h.OnBetConfirmed(2, decimal.NewFromInt(10))
	h.OnBetRejected("limit_exceeded")
	h.OnRoundEnd(false)
	h.OnPotChanged(decimal.RequireFromString("12525.5"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BetsConfirmed))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TicketsSold))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.VolumeSold))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BetsRejected.WithLabelValues("limit_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoundsEnded.WithLabelValues("false")))
	assert.Equal(t, 12525.5, testutil.ToFloat64(m.Pot))
}
