package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chain-simulator/dto"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chainsim"
)

// Client fala com o chain-simulator; implementa raffle.Connector e raffle.TxSubmitter.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New cria o client. O timeout precisa cobrir os atrasos simulados.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Connect(ctx context.Context) (string, error) {
	var out dto.ConnectResp
	if err := c.post(ctx, "/chain/connect", nil, &out); err != nil {
		return "", err
	}
	return out.Address, nil
}

func (c *Client) SubmitBet(ctx context.Context, amount decimal.Decimal) (string, error) {
	var out dto.SubmitResp
	if err := c.post(ctx, "/chain/submit", dto.SubmitReq{Amount: amount.String()}, &out); err != nil {
		return "", err
	}
	return out.TxHash, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("chain %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e dto.ErrorResp
		_ = json.NewDecoder(res.Body).Decode(&e)
		switch e.Error {
		case dto.ReasonConnectRejected:
			return chainsim.ErrConnectRejected
		case dto.ReasonTxRejected:
			return chainsim.ErrTxRejected
		}
		return fmt.Errorf("chain %s http %d: %s", path, res.StatusCode, e.Error)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
