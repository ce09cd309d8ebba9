package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/sessions"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/validate"
)

// SelectionRequest é o corpo de POST /sessions/{id}/selection.
type SelectionRequest struct {
	Action string `json:"action" validate:"required,selection_action"`
}

// BetRequest é o corpo de POST /sessions/{id}/bets.
type BetRequest struct {
	Tickets int `json:"tickets" validate:"required,min=1"`
}

// SessionView junta o estado da carteira com o que o painel mostra dela.
type SessionView struct {
	raffle.WalletState
	UserBets       int             `json:"userBets"`
	SelectionCost  decimal.Decimal `json:"selectionCost"`
	PotentialPrize decimal.Decimal `json:"potentialPrize"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Server expõe o engine da rifa por HTTP.
type Server struct {
	log    *zap.Logger
	engine *raffle.Engine
	store  *sessions.Store
	v      *validate.Validator
	ws     http.Handler

	// ConnectTimeout limita a espera pela carteira simulada.
	ConnectTimeout time.Duration
	// BetTimeout limita a espera pela confirmação da transação.
	BetTimeout time.Duration
}

func NewServer(log *zap.Logger, engine *raffle.Engine, store *sessions.Store, v *validate.Validator, ws http.Handler) *Server {
	return &Server{
		log:            log,
		engine:         engine,
		store:          store,
		v:              v,
		ws:             ws,
		ConnectTimeout: 15 * time.Second,
		BetTimeout:     30 * time.Second,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/round", s.getRound)
	if s.ws != nil {
		r.Get("/ws", s.ws.ServeHTTP)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/connect", s.connect)
			r.Post("/disconnect", s.disconnect)
			r.Post("/selection", s.adjustSelection)
			r.Post("/bets", s.placeBet)
			r.Post("/bets/selected", s.placeSelected)
		})
	})
	return r
}

func (s *Server) getRound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Round())
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.store.Create()
	s.log.Debug("session created", zap.String("session_id", sess.ID()))
	writeJSON(w, http.StatusCreated, s.view(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session_not_found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(r, s.ConnectTimeout)
	defer cancel()

	if err := sess.Connect(ctx); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Disconnect()
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) adjustSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req SelectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := s.engine.AdjustSelection(sess, raffle.SelectionAction(req.Action)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req BetRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx, cancel := contextWithTimeout(r, s.BetTimeout)
	defer cancel()

	receipt, err := s.engine.PlaceBet(ctx, sess, req.Tickets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// placeSelected compra a quantidade escolhida via /selection.
func (s *Server) placeSelected(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ctx, cancel := contextWithTimeout(r, s.BetTimeout)
	defer cancel()

	receipt, err := s.engine.PlaceSelected(ctx, sess)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*raffle.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session_not_found"})
		return nil, false
	}
	return sess, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad json"})
		return false
	}
	if err := s.v.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload", Fields: validate.Fields(err)})
		return false
	}
	return true
}

func (s *Server) view(sess *raffle.Session) SessionView {
	st := sess.Snapshot()
	return SessionView{
		WalletState:    st,
		UserBets:       s.engine.UserBets(sess),
		SelectionCost:  s.engine.Rules().Cost(st.Selection),
		PotentialPrize: s.engine.PotentialPrize(st.Selection),
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: code})
}

// statusFor mapeia os erros do engine para HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, raffle.ErrNotConnected):
		return http.StatusBadRequest, "not_connected"
	case errors.Is(err, raffle.ErrInvalidTicketCount):
		return http.StatusBadRequest, "invalid_ticket_count"
	case errors.Is(err, raffle.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient_funds"
	case errors.Is(err, raffle.ErrLimitExceeded):
		return http.StatusConflict, "limit_exceeded"
	case errors.Is(err, raffle.ErrBetInFlight):
		return http.StatusConflict, "bet_in_flight"
	case errors.Is(err, raffle.ErrAlreadyConnected):
		return http.StatusConflict, "already_connected"
	case errors.Is(err, raffle.ErrConnectInFlight):
		return http.StatusConflict, "connect_in_flight"
	case errors.Is(err, raffle.ErrTransactionFailed):
		return http.StatusBadGateway, "transaction_failed"
	case errors.Is(err, raffle.ErrConnectionFailed):
		return http.StatusBadGateway, "connection_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
