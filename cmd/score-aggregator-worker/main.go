package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/score-aggregator/consumer"
	"github.com/radieske/prediction-league-poc/internal/score-aggregator/pubsub"
	"github.com/radieske/prediction-league-poc/internal/score-aggregator/service"
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

	// Consumer Kafka do tópico points_changes (grupo score-aggregator)
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  "score-aggregator",
		Topic:    cfg.TopicPointsChanges,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicPointsChangesDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPointsChangesDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus da agregação
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "aggregator_messages_consumed_total", Help: "mensagens consumidas"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "aggregator_deltas_applied_total", Help: "deltas aplicados no placar"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "aggregator_deltas_skipped_total", Help: "eventos sem mudança real"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "aggregator_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, skipped, errorsBy)

	aggregator := &service.Aggregator{
		Log:       log,
		Store:     store.NewRedis(redisClient),
		Broadcast: pubsub.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel),
		OnApplied: func() { applied.Inc() },
		OnSkipped: func() { skipped.Inc() },
	}

	worker := &consumer.Worker{
		Log:        log,
		Reader:     reader,
		Aggregator: aggregator,
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

	log.Info("score-aggregator started",
		zap.String("consume", cfg.TopicPointsChanges),
		zap.String("broadcast", cfg.RedisPubSubChannel),
	)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}
	log.Info("score-aggregator stopped")
}
