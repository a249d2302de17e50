package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/points-recalc/consumer"
	"github.com/radieske/prediction-league-poc/internal/points-recalc/publisher"
	"github.com/radieske/prediction-league-poc/internal/points-recalc/service"
	sharedcache "github.com/radieske/prediction-league-poc/internal/shared/cache"
	"github.com/radieske/prediction-league-poc/internal/shared/config"
	"github.com/radieske/prediction-league-poc/internal/shared/kafka"
	"github.com/radieske/prediction-league-poc/internal/shared/logger"
	"github.com/radieske/prediction-league-poc/internal/shared/metrics"
	"github.com/radieske/prediction-league-poc/internal/shared/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Consumer Kafka do tópico match_updates (grupo points-recalc)
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  "points-recalc",
		Topic:    cfg.TopicMatchUpdates,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	// Publisher de points_changes e DLQ para mensagens indecodificáveis
	pointsPub := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicPointsChanges, log)
	defer pointsPub.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicMatchUpdatesDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchUpdatesDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus do recálculo
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "recalc_messages_consumed_total", Help: "mensagens consumidas"})
	written := prometheus.NewCounter(prometheus.CounterOpts{Name: "recalc_points_writes_total", Help: "pontos regravados"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "recalc_points_skips_total", Help: "palpites já convergidos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "recalc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, written, skipped, errorsBy)

	recalc := &service.Recalculator{
		Log:     log,
		Store:   store.NewRedis(redisClient),
		Events:  pointsPub,
		OnWrite: func() { written.Inc() },
		OnSkip:  func() { skipped.Inc() },
	}

	worker := &consumer.Worker{
		Log:        log,
		Reader:     reader,
		Recalc:     recalc,
		DLQ:        dlqWriter,
		OnConsumed: func() { consumed.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("points-recalc started",
		zap.String("consume", cfg.TopicMatchUpdates),
		zap.String("publish", cfg.TopicPointsChanges),
	)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}
	log.Info("points-recalc stopped")
}
