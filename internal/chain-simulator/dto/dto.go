package dto

// ConnectResp é a resposta de POST /chain/connect.
type ConnectResp struct {
	Address string `json:"address"`
}

// SubmitReq é o corpo de POST /chain/submit; amount vai como string decimal.
type SubmitReq struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type SubmitResp struct {
	TxHash string `json:"txHash"`
}

// ErrorResp carrega o motivo de uma recusa simulada.
type ErrorResp struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	ReasonConnectRejected = "connect_rejected"
	ReasonTxRejected      = "tx_rejected"
	ReasonInvalidAmount   = "invalid_amount"
)
