package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers("a:9092, b:9092,"))
	assert.Nil(t, Brokers(""))
}

func TestNewWriter(t *testing.T) {
	w := NewWriter("a:9092,b:9092", "raffle_bet_confirmed")
	defer w.Close()

	assert.Equal(t, "raffle_bet_confirmed", w.Topic)
	assert.Equal(t, "a:9092,b:9092", w.Addr.String())
}

func TestNewReader(t *testing.T) {
	r := NewReader("a:9092", "raffle-journal", "raffle_bet_confirmed", "raffle_round_ended")
	defer r.Close()

	cfg := r.Config()
	assert.Equal(t, "raffle-journal", cfg.GroupID)
	assert.Equal(t, []string{"raffle_bet_confirmed", "raffle_round_ended"}, cfg.GroupTopics)
	assert.Equal(t, []string{"a:9092"}, cfg.Brokers)
}
