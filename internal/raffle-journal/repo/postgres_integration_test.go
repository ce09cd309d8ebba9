package repo

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/db"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() {
		testDSN, terminate = setupContainer(context.Background())
	}

	code := m.Run()
	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupContainer(ctx context.Context) (dsn string, terminate func()) {
	// sem docker o testcontainers pode entrar em pânico
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("recovered from panic in setupContainer: %v\n", r)
			dsn, terminate = "", nil
		}
	}()

	c, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("raffle"),
		postgres.WithUsername("raffle"),
		postgres.WithPassword("raffle"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: failed to start postgres container: %v\n", err)
		return "", nil
	}

	dsn, err = c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: failed to get connection string: %v\n", err)
		_ = c.Terminate(ctx)
		return "", nil
	}
	return dsn, func() {
		if err := c.Terminate(ctx); err != nil {
			fmt.Printf("failed to terminate container: %v\n", err)
		}
	}
}

func newRepo(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if testDSN == "" {
		t.Skip("skipping integration test: database not available")
	}

	ctx := context.Background()
	conn, err := db.ConnectPostgres(ctx, testDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	r := NewPostgres(conn)
	require.NoError(t, r.EnsureSchema(ctx))
	_, err = conn.ExecContext(ctx, `TRUNCATE raffle_bets, raffle_rounds`)
	require.NoError(t, err)
	return r
}

func TestPostgres_SaveBetIsIdempotent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	bet := events.BetConfirmed{
		BetID:     "bet-1",
		SessionID: "s-1",
		Address:   "0xabc",
		Tickets:   3,
		Cost:      decimal.NewFromInt(15),
		TxHash:    "0xhash",
		Round:     7,
		Pot:       decimal.NewFromInt(15),
		Ts:        time.Now().UTC(),
	}
	require.NoError(t, r.SaveBet(ctx, bet))
	require.NoError(t, r.SaveBet(ctx, bet))

	other := bet
	other.BetID = "bet-2"
	other.Tickets = 2
	require.NoError(t, r.SaveBet(ctx, other))

	got, err := r.RoundTickets(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"0xabc": 5}, got)

	got, err = r.RoundTickets(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgres_SaveRoundEnd(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	ended := events.RoundEnded{
		Round:         7,
		EndedAt:       time.Now().UTC(),
		Pot:           decimal.NewFromInt(120),
		WinnerShare:   decimal.NewFromInt(90),
		PlatformShare: decimal.NewFromInt(30),
		DevShares:     []decimal.Decimal{decimal.NewFromInt(15), decimal.NewFromInt(15)},
		PotReset:      true,
	}
	require.NoError(t, r.SaveRoundEnd(ctx, ended))

	// segunda entrega da mesma rodada não sobrescreve
	dup := ended
	dup.Pot = decimal.NewFromInt(1)
	require.NoError(t, r.SaveRoundEnd(ctx, dup))

	var pot decimal.Decimal
	var shares int
	err := r.db.QueryRowContext(ctx,
		`SELECT pot, cardinality(dev_shares) FROM raffle_rounds WHERE round=$1`, 7).Scan(&pot, &shares)
	require.NoError(t, err)
	assert.True(t, pot.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, 2, shares)
}
