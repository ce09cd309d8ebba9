package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "raffle-service")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9095", cfg.MetricsPort)
	assert.Equal(t, "raffle_bet_confirmed", cfg.TopicBetConfirmed)
	assert.Equal(t, "raffle_round_ended", cfg.TopicRoundEnded)
	assert.Equal(t, 1500*time.Millisecond, cfg.WalletDelay)
	assert.Equal(t, 3*time.Second, cfg.TxDelay)
	assert.Equal(t, time.Second, cfg.TickInterval)

	want := raffle.DefaultRules()
	assert.Equal(t, want.RoundDuration, cfg.Rules.RoundDuration)
	assert.True(t, want.TicketPrice.Equal(cfg.Rules.TicketPrice))
	assert.Equal(t, want.MaxTicketsPerWallet, cfg.Rules.MaxTicketsPerWallet)
	assert.Equal(t, raffle.CreditAtConfirmation, cfg.Rules.CreditPolicy)
	assert.False(t, cfg.Rules.ResetPotOnRoundEnd)
}

func TestLoad_PortsPerService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "chain-simulator")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "9094", cfg.MetricsPort)

	t.Setenv("SERVICE_NAME", "raffle-journal-worker")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.HTTPPort)
}

func TestLoad_EnvOverridesRules(t *testing.T) {
	t.Setenv("RAFFLE_ROUND_MINUTES", "5")
	t.Setenv("RAFFLE_TICKET_PRICE", "2.5")
	t.Setenv("RAFFLE_MAX_TICKETS_PER_WALLET", "10")
	t.Setenv("RAFFLE_CREDIT_POLICY", "submission")
	t.Setenv("RAFFLE_RESET_POT_ON_ROUND_END", "true")
	t.Setenv("CHAIN_TX_FAIL_RATE", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Rules.RoundDuration)
	assert.True(t, cfg.Rules.TicketPrice.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 10, cfg.Rules.MaxTicketsPerWallet)
	assert.Equal(t, raffle.CreditAtSubmission, cfg.Rules.CreditPolicy)
	assert.True(t, cfg.Rules.ResetPotOnRoundEnd)
	assert.InDelta(t, 0.2, cfg.TxFailRate, 1e-9)
}

func TestLoad_RulesFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
round_minutes: 60
ticket_price: "10"
winner_percentage: "0.8"
platform_percentage: "0.2"
reset_pot_on_round_end: true
`), 0o600))

	t.Setenv("RAFFLE_RULES_FILE", path)
	t.Setenv("RAFFLE_TICKET_PRICE", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Rules.RoundDuration)
	assert.True(t, cfg.Rules.TicketPrice.Equal(decimal.NewFromInt(12)))
	assert.True(t, cfg.Rules.WinnerPercentage.Equal(decimal.RequireFromString("0.8")))
	assert.True(t, cfg.Rules.ResetPotOnRoundEnd)
}

func TestLoad_InvalidValuesAreJoined(t *testing.T) {
	t.Setenv("RAFFLE_TICKET_PRICE", "five")
	t.Setenv("CHAIN_TX_DELAY", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "RAFFLE_TICKET_PRICE")
	assert.ErrorContains(t, err, "CHAIN_TX_DELAY")
}

func TestLoad_RulesMustValidate(t *testing.T) {
	t.Setenv("RAFFLE_WINNER_PERCENTAGE", "0.9")

	_, err := Load()
	assert.ErrorContains(t, err, "sum to 1")
}
