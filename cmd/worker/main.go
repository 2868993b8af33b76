package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilink/pharmacare-api/internal/config"
	"github.com/medilink/pharmacare-api/internal/email"
	"github.com/medilink/pharmacare-api/internal/repository/postgres"
	"github.com/medilink/pharmacare-api/pkg/logger"
	"github.com/medilink/pharmacare-api/pkg/messaging/redis"
	"github.com/medilink/pharmacare-api/pkg/metrics"
	"github.com/medilink/pharmacare-api/pkg/worker"
)

func main() {
	l := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		l.Fatal(err, "failed to load configuration")
	}
	if level, perr := zerolog.ParseLevel(cfg.Logger.Level); perr == nil {
		l = logger.NewLogger(&logger.Config{
			Level:      level,
			TimeFormat: time.RFC3339,
			Output:     os.Stdout,
		})
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		l.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := l.ZL()
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: time.Duration(cfg.Redis.RetryBackoffMs) * time.Millisecond,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, zl)
	if err != nil {
		l.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)

	m := metrics.NewMetrics("pharmacare", "worker")
	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Worker.BatchSize,
		PollInterval:  time.Duration(cfg.Worker.PollIntervalSeconds) * time.Second,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Second,
	}, l, m)

	notifier := worker.NewClaimNotifier(broker, companyRepo, email.NewService(cfg.Email), l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)
	go func() {
		if err := notifier.Start(ctx); err != nil {
			l.Error(err, "claim notifier stopped")
		}
	}()

	setupHealthCheck(l)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("shutting down worker...")
	cancel()
}

func setupHealthCheck(l *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			l.Fatal(err, "health check server failed")
		}
	}()
}
