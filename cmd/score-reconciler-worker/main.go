package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/score-reconciler/repository"
	"github.com/radieske/prediction-league-poc/internal/score-reconciler/service"
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

	// Métricas Prometheus do sweep
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Name: "reconciler_sweeps_total", Help: "varreduras executadas"})
	corrected := prometheus.NewCounter(prometheus.CounterOpts{Name: "reconciler_corrections_total", Help: "placares corrigidos"})
	prometheus.MustRegister(sweeps, corrected)

	reconciler := &service.Reconciler{
		Log:         log,
		Store:       store.NewRedis(redisClient),
		History:     repository.NewPostgresRepo(pg),
		OnCorrected: func() { corrected.Inc() },
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

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("scheduler init", zap.Error(err))
	}

	_, err = sched.NewJob(
		gocron.DurationJob(cfg.ReconcileInterval),
		gocron.NewTask(func() {
			sweeps.Inc()

			runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()

			if _, err := reconciler.Sweep(runCtx); err != nil {
				log.Warn("reconciliation sweep failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		log.Fatal("scheduler job", zap.Error(err))
	}

	sched.Start()
	log.Info("score-reconciler started", zap.Duration("interval", cfg.ReconcileInterval))

	<-ctx.Done()
	log.Info("shutdown signal received")
	_ = sched.Shutdown()
	log.Info("score-reconciler stopped")
}
