package gymapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/gym-membership/internal/cache"
	"github.com/magabrotheeeer/gym-membership/internal/config"
	"github.com/magabrotheeeer/gym-membership/internal/lib/jwt"
	"github.com/magabrotheeeer/gym-membership/internal/lib/sl"
	"github.com/magabrotheeeer/gym-membership/internal/metrics"
	"github.com/magabrotheeeer/gym-membership/internal/migrations"
	"github.com/magabrotheeeer/gym-membership/internal/rabbitmq"
	"github.com/magabrotheeeer/gym-membership/internal/services/groupclass"
	"github.com/magabrotheeeer/gym-membership/internal/services/offer"
	"github.com/magabrotheeeer/gym-membership/internal/services/payment"
	"github.com/magabrotheeeer/gym-membership/internal/services/paymentmethod"
	"github.com/magabrotheeeer/gym-membership/internal/services/subscription"
	"github.com/magabrotheeeer/gym-membership/internal/storage/repository"
)

// App HTTP API клуба.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
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
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gateway := paymentmethod.New(db, logger)
	ledger := payment.NewLedger(db, logger)
	guard := groupclass.NewGuard(db, logger)
	engine := subscription.New(subscription.Deps{
		Repo:        db,
		Gateway:     gateway,
		Offers:      offer.NewCatalog(db),
		Ledger:      ledger,
		Enrollments: guard,
		Cache:       cacheRedis,
		Publisher:   rabbitmq.NewPublisher(ch, rabbitmq.PassesExchange),
		Metrics:     metrics.NewBillingMetrics(registry),
	}, logger, cfg.SweepWorkers, cfg.PassCacheTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Passes:         engine,
		Payments:       ledger,
		PaymentMethods: gateway,
		Enrollments:    guard,
		Tokens:         jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		DB:             db.DB,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, RateLimit{Limit: rate.Limit(cfg.RateLimit), Burst: cfg.RateBurst})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
