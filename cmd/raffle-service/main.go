package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/chain"
	httpapi "github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/http"
	rmetrics "github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/metrics"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/producer"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/pubsub"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/sessions"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-service/ws"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/cache"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/config"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/kafka"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/logger"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/metrics"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/validate"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/pkg/contracts/events"
)

func main() {
	_ = godotenv.Load() // .env é opcional

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config: %w", err))
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting service",
		zap.String("env", cfg.Env),
		zap.Duration("round", cfg.Rules.RoundDuration),
		zap.String("ticket_price", cfg.Rules.TicketPrice.String()),
		zap.Int("max_tickets", cfg.Rules.MaxTicketsPerWallet),
		zap.String("credit_policy", string(cfg.Rules.CreditPolicy)),
	)

	m := rmetrics.New(prometheus.DefaultRegisterer)
	hub := ws.NewHub(log, func(*http.Request) bool { return true })
	hub.OnConnect = m.WSConnections.Inc
	hub.OnDisconnect = m.WSConnections.Dec
	hub.OnSent = m.WSMessagesSent.Inc

	// Redis faz o fan-out entre réplicas; sem ele cada réplica entrega só aos seus clientes
	var publishers raffle.Publishers
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("redis unavailable, broadcasting locally", zap.Error(err))
		publishers = append(publishers, ws.LocalPublisher{Hub: hub})
	} else {
		defer rdb.Close()
		log.Info("redis connected")
		publishers = append(publishers, pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel))
	}

	if cfg.KafkaBrokers != "" {
		bets := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetConfirmed)
		defer bets.Close()
		rounds := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundEnded)
		defer rounds.Close()
		publishers = append(publishers, producer.NewKafkaPublisher(bets, rounds))
		log.Info("kafka writers ready",
			zap.String("bets", cfg.TopicBetConfirmed),
			zap.String("rounds", cfg.TopicRoundEnded),
		)
	}

	clock := raffle.NewClock(clockwork.NewRealClock(), cfg.Rules.RoundDuration, raffle.WithTickInterval(cfg.TickInterval))
	chainClient := chain.New(cfg.ChainURL, 0)

	engine := raffle.NewEngine(log, cfg.Rules, clock, chainClient,
		raffle.WithPublisher(publishers),
		raffle.WithHooks(m.Hooks()),
	)

	store := sessions.New(cfg.SessionCacheSize, cfg.SessionTTL,
		func(id string) *raffle.Session { return engine.NewSession(id, chainClient) },
		func(string) { m.SessionsEvicted.Inc() },
	)

	api := httpapi.NewServer(log, engine, store, validate.New(), http.HandlerFunc(hub.HandleWS))
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := func(ctx context.Context) error {
		if rdb == nil {
			return nil
		}
		return rdb.Ping(ctx).Err()
	}
	metricsSrv := metrics.NewServer(cfg.MetricsPort, health)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", apiSrv.Addr))
		return metrics.Serve(gctx, apiSrv)
	})
	g.Go(func() error {
		log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))
		return metrics.Serve(gctx, metricsSrv)
	})
	if rdb != nil {
		g.Go(func() error {
			err := ws.RunRedisSubscriber(gctx, log, rdb, cfg.RedisPubSubChannel, hub)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, redis.ErrClosed) {
				return fmt.Errorf("redis subscriber: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		watcher := clock.Watch(gctx)
		defer watcher.Stop()
		engine.Observe(gctx, watcher.C(), func(t raffle.Tick) {
			env, err := events.Wrap(events.TypeTick, t.Event(engine.Pot()))
			if err != nil {
				log.Warn("wrap tick", zap.Error(err))
				return
			}
			hub.Broadcast(env)
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("raffle-service stopped", zap.Error(err))
		return
	}
	log.Info("raffle-service stopped")
}
