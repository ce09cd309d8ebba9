package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

// schema do journal; só auditoria, o engine nunca lê daqui
const schema = `
CREATE TABLE IF NOT EXISTS raffle_bets (
	bet_id       TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	address      TEXT NOT NULL,
	tickets      INTEGER NOT NULL CHECK (tickets > 0),
	cost         NUMERIC(20,6) NOT NULL,
	tx_hash      TEXT NOT NULL,
	round        BIGINT NOT NULL,
	pot_after    NUMERIC(20,6) NOT NULL,
	confirmed_at TIMESTAMPTZ NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS raffle_bets_round_address ON raffle_bets (round, address);

CREATE TABLE IF NOT EXISTS raffle_rounds (
	round          BIGINT PRIMARY KEY,
	ended_at       TIMESTAMPTZ NOT NULL,
	pot            NUMERIC(20,6) NOT NULL,
	winner_share   NUMERIC(20,6) NOT NULL,
	platform_share NUMERIC(20,6) NOT NULL,
	dev_shares     NUMERIC(20,6)[] NOT NULL DEFAULT '{}',
	pot_reset      BOOLEAN NOT NULL,
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Postgres grava o histórico de apostas e viradas de rodada
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório do journal
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsureSchema cria as tabelas se ainda não existirem
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("journal schema: %w", err)
	}
	return nil
}

// SaveBet insere a aposta confirmada; reentregas do mesmo bet_id são ignoradas
func (p *Postgres) SaveBet(ctx context.Context, e events.BetConfirmed) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO raffle_bets (bet_id,session_id,address,tickets,cost,tx_hash,round,pot_after,confirmed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (bet_id) DO NOTHING`,
		e.BetID, e.SessionID, e.Address, e.Tickets, e.Cost, e.TxHash, e.Round, e.Pot, e.Ts,
	)
	if err != nil {
		return fmt.Errorf("insert bet %s: %w", e.BetID, err)
	}
	return nil
}

// SaveRoundEnd registra a virada; a primeira gravação de uma rodada vence
func (p *Postgres) SaveRoundEnd(ctx context.Context, e events.RoundEnded) error {
	shares := make([]string, len(e.DevShares))
	for i, s := range e.DevShares {
		shares[i] = s.String()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO raffle_rounds (round,ended_at,pot,winner_share,platform_share,dev_shares,pot_reset)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (round) DO NOTHING`,
		e.Round, e.EndedAt, e.Pot, e.WinnerShare, e.PlatformShare, pq.Array(shares), e.PotReset,
	)
	if err != nil {
		return fmt.Errorf("insert round %d: %w", e.Round, err)
	}
	return nil
}

// RoundTickets soma os tickets de cada carteira numa rodada
func (p *Postgres) RoundTickets(ctx context.Context, round int64) (map[string]int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT address, SUM(tickets) FROM raffle_bets WHERE round=$1 GROUP BY address`, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var addr string
		var n int
		if err := rows.Scan(&addr, &n); err != nil {
			return nil, err
		}
		out[addr] = n
	}
	return out, rows.Err()
}
