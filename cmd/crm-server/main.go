package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"talent-crm/internal/api"
	"talent-crm/internal/common/config"
	"talent-crm/internal/common/database"
	"talent-crm/internal/common/logger"
	"talent-crm/internal/common/observability"
	"talent-crm/internal/ledger"
	"talent-crm/internal/ownership"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting crm-server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("crm-server")
	defer obs.Shutdown()

	ctx := context.Background()

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var snapshotCache *ownership.SnapshotCache
	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		snapshotCache = ownership.NewSnapshotCache(redis.Client, log)
	}

	var notifier ownership.Notifier = ownership.NoopNotifier{}
	if cfg.Notifications.AWS.SES.Enabled || cfg.Notifications.AWS.SNS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Notifications.AWS.Region))
		if err != nil {
			zapLog.Fatal("load AWS config failed", zap.Error(err))
		}
		notifier = ownership.NewAWSNotifier(
			ownership.NotifierConfig{
				EmailEnabled: cfg.Notifications.AWS.SES.Enabled,
				SMSEnabled:   cfg.Notifications.AWS.SNS.Enabled,
				FromEmail:    cfg.Notifications.AWS.SES.FromEmail,
			},
			pg.DB, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), log,
		)
		zapLog.Info("AWS notifier initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	clock := ownership.SystemClock()
	writer := ledger.NewWriter(pg.DB, log)
	coordinator := ownership.NewCoordinator(pg.DB, snapshotCache, log, clock)
	manager := ownership.NewManager(pg.DB, snapshotCache, notifier, log, clock)
	sweeper := ownership.NewSweeper(pg.DB, snapshotCache, log, clock,
		time.Duration(cfg.Sweep.CooldownMinutes)*time.Minute)

	handler := api.NewHandler(pg.DB, writer, coordinator, manager, sweeper, snapshotCache, clock, obs, log)
	router := api.NewRouter(handler, log)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		if _, err := sweeper.Sweep(context.Background()); err != nil {
			zapLog.Error("scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		zapLog.Fatal("invalid sweep schedule", zap.Error(err), zap.String("schedule", cfg.Sweep.Schedule))
	}
	scheduler.Start()
	defer scheduler.Stop()
	zapLog.Info("Expiry sweep scheduled", zap.String("schedule", cfg.Sweep.Schedule))

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	zapLog.Info("crm-server stopped gracefully")
}
