// Package app собирает зависимости сервиса заказов и управляет его запуском.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/retailx/orders/internal/api/httpx"
	"github.com/retailx/orders/internal/domain"
	healthcheck "github.com/retailx/orders/internal/health"
	"github.com/retailx/orders/internal/messaging/kafka"
	"github.com/retailx/orders/internal/metrics"
	"github.com/retailx/orders/internal/notification"
	"github.com/retailx/orders/internal/service/order"
	"github.com/retailx/orders/internal/storage/memory"
	"github.com/retailx/orders/internal/storage/postgres"
	"github.com/retailx/orders/internal/version"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного REST API.
	HTTPAddr string
	// OpsAddr — адрес служебного сервера: метрики и health checks.
	OpsAddr string
	// NotificationBaseURL — базовый URL внешнего сервиса уведомлений.
	// Пустое значение отключает уведомления.
	NotificationBaseURL string
	// NotificationTimeout ограничивает один вызов сервиса уведомлений.
	NotificationTimeout time.Duration
	// PostgresDSN — строка подключения к PostgreSQL.
	// Пустое значение переключает сервис на in-memory хранилище.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую; пустое значение
	// отключает публикацию доменных событий.
	KafkaBrokers string
}

// DefaultConfig возвращает базовые адреса и таймауты.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		OpsAddr:             ":9090",
		NotificationTimeout: 3 * time.Second,
	}
}

// FromEnv накладывает переменные окружения RETAILX_* поверх cfg.
func FromEnv(cfg Config) Config {
	if v := os.Getenv("RETAILX_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RETAILX_OPS_ADDR"); v != "" {
		cfg.OpsAddr = v
	}
	if v := os.Getenv("RETAILX_NOTIFICATIONS_URL"); v != "" {
		cfg.NotificationBaseURL = v
	}
	if v := os.Getenv("RETAILX_NOTIFICATIONS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.NotificationTimeout = d
		}
	}
	if v := os.Getenv("RETAILX_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("RETAILX_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	return cfg
}

// Run запускает сервис заказов и блокируется до отмены ctx или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	healthHandler := healthcheck.NewHandler(version.GetVersion())

	var (
		repo         domain.OrderRepository
		timelineRepo domain.TimelineRepository
	)

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close postgres store")
			}
		}()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		repo = postgres.NewOrderRepository(store)
		timelineRepo = postgres.NewTimelineRepository(store)
		healthHandler.RegisterFunc("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		})
		logger.Info("postgres storage initialized")
	} else {
		repo = memory.NewOrderRepository()
		timelineRepo = memory.NewTimelineRepository()
		logger.Info("in-memory storage initialized")
	}

	var notifier domain.NotificationService
	if cfg.NotificationBaseURL != "" {
		notifier = notification.NewClient(cfg.NotificationBaseURL, cfg.NotificationTimeout, nil)
		logger.WithField("url", cfg.NotificationBaseURL).Info("notification client initialized")
	} else {
		logger.Warn("notifications disabled: no notification service URL configured")
	}

	// Kafka producer (опционально).
	var kafkaProducer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	options := []order.Option{
		order.WithTimeline(timelineRepo),
		order.WithMetrics(metrics.NewOrderMetrics()),
		order.WithNotifyTimeout(cfg.NotificationTimeout),
		order.WithLogger(log.WithField("component", "order-service")),
	}
	if kafkaProducer != nil {
		options = append(options, order.WithPublisher(kafkaProducer))
	}
	orderService := order.NewService(repo, notifier, options...)

	opsSrv := startOpsServer(ctx, cfg.OpsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpx.NewRouter(httpx.NewHandler(orderService, log.WithField("component", "http-api"))),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	shutdown := func() {
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)

		// Даём фоновым уведомлениям и публикациям завершиться.
		drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := orderService.Shutdown(drainCtx); err != nil {
			logger.WithError(err).Warn("service shutdown exceeded timeout")
		}

		if kafkaProducer != nil {
			if err := kafkaProducer.Close(); err != nil {
				logger.WithError(err).Warn("failed to close kafka producer")
			} else {
				logger.Info("kafka producer closed")
			}
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdown()
		return ctx.Err()
	case err := <-errCh:
		shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOpsServer запускает служебный HTTP-сервер: метрики и health checks.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
