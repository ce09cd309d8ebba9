package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-journal/consumer"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle-journal/repo"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/config"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/db"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/kafka"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/logger"
	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/shared/metrics"
)

var (
	consumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_journal_consumed_total",
		Help: "Mensagens consumidas por tópico",
	}, []string{"topic"})
	persistedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_journal_persisted_total",
		Help: "Eventos gravados no Postgres por tópico",
	}, []string{"topic"})
	deadLetteredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_journal_dlq_total",
		Help: "Mensagens enviadas para a DLQ por tópico",
	}, []string{"topic"})
	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raffle_journal_errors_total",
		Help: "Falhas por etapa",
	}, []string{"stage"})
)

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

	prometheus.MustRegister(consumedTotal, persistedTotal, deadLetteredTotal, errorsTotal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}
	log.Info("postgres connected")

	reader := kafka.NewReader(cfg.KafkaBrokers, "raffle-journal", cfg.TopicBetConfirmed, cfg.TopicRoundEnded)
	defer reader.Close()

	var dlq consumer.Writer
	if cfg.TopicJournalDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicJournalDLQ)
		defer w.Close()
		dlq = w
	}

	proc := &consumer.Processor{
		Log:     log,
		Reader:  reader,
		Store:   store,
		DLQ:     dlq,

		BetTopic:   cfg.TopicBetConfirmed,
		RoundTopic: cfg.TopicRoundEnded,

		Retries:   3,
		Backoff:   300 * time.Millisecond,
		Redeliver: 2 * time.Second,

		OnConsumed: func(topic string) { consumedTotal.WithLabelValues(topic).Inc() },
		OnPersist:  func(topic string) { persistedTotal.WithLabelValues(topic).Inc() },
		OnDLQ:      func(topic string) { deadLetteredTotal.WithLabelValues(topic).Inc() },
		OnError:    func(stage string) { errorsTotal.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.NewServer(cfg.MetricsPort, pg.PingContext)

	log.Info("raffle-journal-worker started",
		zap.Strings("consume", []string{cfg.TopicBetConfirmed, cfg.TopicRoundEnded}),
		zap.String("dlq", cfg.TopicJournalDLQ),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metrics.Serve(gctx, metricsSrv) })
	g.Go(func() error {
		if err := proc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("raffle-journal-worker stopped", zap.Error(err))
		return
	}
	log.Info("raffle-journal-worker stopped")
}
