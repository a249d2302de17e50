package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/results-ingest/feed"
	"github.com/radieske/prediction-league-poc/internal/results-ingest/publisher"
	"github.com/radieske/prediction-league-poc/internal/results-ingest/repository"
	"github.com/radieske/prediction-league-poc/internal/results-ingest/service"
	sharedcache "github.com/radieske/prediction-league-poc/internal/shared/cache"
	"github.com/radieske/prediction-league-poc/internal/shared/config"
	"github.com/radieske/prediction-league-poc/internal/shared/db"
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

	// Inicializa dependências: Postgres (histórico) e Redis (store)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := db.RunMigrations(pg); err != nil {
		log.Fatal("postgres migrations", zap.Error(err))
	}

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Publisher de eventos match_updates
	pub := publisher.NewKafkaPublisher(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.TopicMatchUpdates,
		log,
	)
	defer pub.Close()

	// Métricas Prometheus do ciclo de ingestão
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_runs_total", Help: "rodadas de sincronização executadas"})
	writes := prometheus.NewCounter(prometheus.CounterOpts{Name: "ingest_field_writes_total", Help: "campos de placar escritos"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ingest_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(runs, writes, errorsBy)

	syncer := &service.Syncer{
		Log:       log,
		Feed:      feed.NewClient(cfg.FeedBaseURL, cfg.FeedCompetitionID, cfg.FeedSeasonID, log),
		Store:     store.NewRedis(redisClient),
		Events:    pub,
		History:   repository.NewPostgresRepo(pg),
		OnApplied: func(n int) { writes.Add(float64(n)) },
		OnError:   func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Agendador: uma sincronização por intervalo sobre a janela do dia.
	// A operação é idempotente e sem cursor; cada rodada parte do zero.
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("scheduler init", zap.Error(err))
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.PollInterval),
		gocron.NewTask(func() {
			runs.Inc()

			now := time.Now().UTC()
			from := now.Truncate(24 * time.Hour)
			to := from.Add(24 * time.Hour)

			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			n, err := syncer.SyncResults(runCtx, from, to)
			if err != nil {
				// recuperável: a próxima rodada tenta de novo do zero
				log.Warn("sync results failed", zap.Error(err))
				return
			}
			if n > 0 {
				log.Info("sync results done", zap.Int("field_writes", n))
			}
		}),
	)
	if err != nil {
		log.Fatal("scheduler job", zap.Error(err))
	}

	sched.Start()
	log.Info("results-ingest started",
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.String("publish", cfg.TopicMatchUpdates),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	_ = sched.Shutdown()
	log.Info("results-ingest stopped")
}
