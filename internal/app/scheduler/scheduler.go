// Package scheduler собирает приложение планировщика: сверки списаний и истечения абонементов
// по таймерам и HTTP-эндпоинт метрик.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/gym-membership/internal/cache"
	"github.com/magabrotheeeer/gym-membership/internal/config"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/metrics"
	"github.com/magabrotheeeer/gym-membership/internal/rabbitmq"
	"github.com/magabrotheeeer/gym-membership/internal/services/groupclass"
	"github.com/magabrotheeeer/gym-membership/internal/services/offer"
	"github.com/magabrotheeeer/gym-membership/internal/services/payment"
	"github.com/magabrotheeeer/gym-membership/internal/services/paymentmethod"
	schedulerservice "github.com/magabrotheeeer/gym-membership/internal/services/scheduler"
	"github.com/magabrotheeeer/gym-membership/internal/services/subscription"
	"github.com/magabrotheeeer/gym-membership/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	billing          config.Billing
	metricsServer    *http.Server
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	// Миграции применяет gym-api, планировщик ждёт готовую схему.
	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := subscription.New(subscription.Deps{
		Repo:        db,
		Gateway:     paymentmethod.New(db, logger),
		Offers:      offer.NewCatalog(db),
		Ledger:      payment.NewLedger(db, logger),
		Enrollments: groupclass.NewGuard(db, logger),
		Cache:       cacheRedis,
		Publisher:   rabbitmq.NewPublisher(ch, rabbitmq.PassesExchange),
		Metrics:     metrics.NewBillingMetrics(registry),
	}, logger, cfg.SweepWorkers, cfg.PassCacheTTL)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &App{
		schedulerService: schedulerservice.NewSchedulerService(engine, cacheRedis, cfg.SweepLockTTL, logger),
		billing:          cfg.Billing,
		metricsServer:    &http.Server{Addr: cfg.MetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		db:               db,
		cache:            cacheRedis,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает циклы сверок и сервер метрик до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.schedulerService.RunCharge(ctx, a.billing.ChargeInterval)
	})
	g.Go(func() error {
		return a.schedulerService.RunExpiration(ctx, a.billing.ExpirationInterval)
	})
	g.Go(func() error {
		a.logger.Info("metrics server starting", slog.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.metricsServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close cache", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close database", sl.Err(cerr))
	}
	return err
}
