package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chain-simulator/dto"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chainsim"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/validate"
)

// Chain é o que o servidor precisa do simulador.
type Chain interface {
	Connect(ctx context.Context) (string, error)
	SubmitBet(ctx context.Context, amount decimal.Decimal) (string, error)
}

// Server expõe o simulador de carteira/contrato por HTTP.
type Server struct {
	log   *zap.Logger
	chain Chain
	v     *validate.Validator

	// métricas opcionais
	OnConnect func(ok bool)
	OnSubmit  func(ok bool)
}

func NewServer(log *zap.Logger, chain Chain, v *validate.Validator) *Server {
	return &Server{log: log, chain: chain, v: v}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/chain/connect", s.connect)
	r.Post("/chain/submit", s.submit)
	return r
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	addr, err := s.chain.Connect(r.Context())
	if s.OnConnect != nil {
		s.OnConnect(err == nil)
	}
	if err != nil {
		s.fail(w, r, err, dto.ReasonConnectRejected)
		return
	}
	writeJSON(w, http.StatusOK, dto.ConnectResp{Address: addr})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req dto.SubmitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResp{Error: "bad json"})
		return
	}
	if err := s.v.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResp{Error: dto.ReasonInvalidAmount, Fields: validate.Fields(err)})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResp{Error: dto.ReasonInvalidAmount})
		return
	}

	hash, err := s.chain.SubmitBet(r.Context(), amount)
	if s.OnSubmit != nil {
		s.OnSubmit(err == nil)
	}
	if err != nil {
		s.fail(w, r, err, dto.ReasonTxRejected)
		return
	}
	writeJSON(w, http.StatusOK, dto.SubmitResp{TxHash: hash})
}

// fail diferencia recusa simulada (422) de cancelamento do cliente.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, reason string) {
	switch {
	case errors.Is(err, chainsim.ErrConnectRejected), errors.Is(err, chainsim.ErrTxRejected):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResp{Error: reason})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.log.Debug("chain request aborted", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusGatewayTimeout, dto.ErrorResp{Error: err.Error()})
	default:
		s.log.Warn("chain request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResp{Error: err.Error()})
	}
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
