package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/config"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/logger"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/metrics"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", to, err)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
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

	// targets
	raffleURL := os.Getenv("RAFFLE_URL")
	if raffleURL == "" {
		raffleURL = "http://localhost:8080"
	}
	raffleProxy, err := rp(raffleURL)
	if err != nil {
		log.Fatal("raffle target", zap.Error(err))
	}
	chainProxy, err := rp(cfg.ChainURL)
	if err != nil {
		log.Fatal("chain target", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(withCORS)

	// /api/raffle/* -> raffle-service (inclui o upgrade de /ws)
	r.Mount("/api/raffle", http.StripPrefix("/api/raffle", raffleProxy))
	// /api/chain/* -> chain-simulator
	r.Mount("/api/chain", http.StripPrefix("/api/chain", chainProxy))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := metrics.NewServer(cfg.MetricsPort, nil)

	log.Info("api-gateway listening",
		zap.String("addr", srv.Addr),
		zap.String("raffle", raffleURL),
		zap.String("chain", cfg.ChainURL),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metrics.Serve(gctx, srv) })
	g.Go(func() error { return metrics.Serve(gctx, metricsSrv) })
	if err := g.Wait(); err != nil {
		log.Error("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
