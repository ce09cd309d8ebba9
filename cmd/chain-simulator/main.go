package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chain-simulator/http"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/chainsim"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/config"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/logger"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/metrics"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/validate"
)

var (
	connectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_sim_connects_total",
		Help: "Conexões de carteira simuladas por resultado",
	}, []string{"result"})
	submitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_sim_submits_total",
		Help: "Transações simuladas por resultado",
	}, []string{"result"})
)

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "rejected"
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	prometheus.MustRegister(connectsTotal, submitsTotal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := chainsim.Options{
		WalletDelay:     cfg.WalletDelay,
		TxDelay:         cfg.TxDelay,
		ConnectFailRate: cfg.ConnectFailRate,
		TxFailRate:      cfg.TxFailRate,
	}
	sim := chainsim.New(clockwork.NewRealClock(), opts, log)

	api := httpapi.NewServer(log, sim, validate.New())
	api.OnConnect = func(ok bool) { connectsTotal.WithLabelValues(result(ok)).Inc() }
	api.OnSubmit = func(ok bool) { submitsTotal.WithLabelValues(result(ok)).Inc() }

	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.NewServer(cfg.MetricsPort, nil)

	log.Info("chain-simulator started",
		zap.String("addr", apiSrv.Addr),
		zap.Duration("wallet_delay", opts.WalletDelay),
		zap.Duration("tx_delay", opts.TxDelay),
		zap.Float64("connect_fail_rate", opts.ConnectFailRate),
		zap.Float64("tx_fail_rate", opts.TxFailRate),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metrics.Serve(gctx, apiSrv) })
	g.Go(func() error { return metrics.Serve(gctx, metricsSrv) })
	if err := g.Wait(); err != nil {
		log.Error("chain-simulator stopped", zap.Error(err))
		return
	}
	log.Info("chain-simulator stopped")
}
