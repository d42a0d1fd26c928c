package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/api"
	healthcheck "github.com/Harish222600/sonica-backend/internal/health"
	"github.com/Harish222600/sonica-backend/internal/messaging/kafka"
	"github.com/Harish222600/sonica-backend/internal/metrics"
	"github.com/Harish222600/sonica-backend/internal/service/delivery"
	"github.com/Harish222600/sonica-backend/internal/service/inventory"
	"github.com/Harish222600/sonica-backend/internal/service/order"
	"github.com/Harish222600/sonica-backend/internal/service/outbox"
	"github.com/Harish222600/sonica-backend/internal/service/payment"
	"github.com/Harish222600/sonica-backend/internal/service/review"
	"github.com/Harish222600/sonica-backend/internal/storage/local"
	"github.com/Harish222600/sonica-backend/internal/version"
)

// Run собирает зависимости и держит HTTP-сервер и outbox-воркер
// до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	repos, err := initStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repos.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	// Kafka опционален: без брокеров события копятся в outbox
	// и будут опубликованы после появления publisher'а.
	kafkaProducer, _ := initKafkaProducer(cfg.Kafka, logger)
	defer closeKafka(kafkaProducer, logger)

	orderMetrics := metrics.NewOrderMetrics()
	signer := payment.NewSigner(cfg.Payment.Secret)
	gateway := payment.NewMockGateway()
	files := local.NewFileStorage(cfg.Files.Root, cfg.Files.BaseURL)

	orderSvc := order.NewService(order.Deps{
		Products:   repos.Products,
		Ledger:     repos.Ledger,
		Carts:      repos.Carts,
		Orders:     repos.Orders,
		Deliveries: repos.Deliveries,
		Partners:   repos.Partners,
		Outbox:     repos.Outbox,
		Gateway:    gateway,
		Signer:     signer,
		Metrics:    orderMetrics,
		Logger:     logger.WithField("layer", "order"),
	}, order.Config{
		StrictTransitions: cfg.Orders.StrictTransitions,
		Currency:          cfg.Payment.Currency,
	})

	deliverySvc := delivery.NewService(delivery.Deps{
		Deliveries: repos.Deliveries,
		Orders:     repos.Orders,
		Files:      files,
		Outbox:     repos.Outbox,
		Metrics:    orderMetrics,
		Logger:     logger.WithField("layer", "delivery"),
	})

	reviewSvc := review.NewService(review.Deps{
		Reviews:    repos.Reviews,
		Products:   repos.Products,
		Orders:     repos.Orders,
		Deliveries: repos.Deliveries,
		Partners:   repos.Partners,
		Logger:     logger.WithField("layer", "review"),
	})

	inventorySvc := inventory.NewService(inventory.Deps{
		Products: repos.Products,
		Ledger:   repos.Ledger,
		Metrics:  orderMetrics,
		Logger:   logger.WithField("layer", "inventory"),
	})

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if repos.Store != nil {
		store := repos.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return store.Ping(context.Background())
		}))
	}

	handlers := api.NewHandlers(api.Deps{
		Orders:     orderSvc,
		Deliveries: deliverySvc,
		Reviews:    reviewSvc,
		Inventory:  inventorySvc,
		Health:     healthHandler,
	})
	router := api.NewRouter(handlers, cfg.Auth.JWTSecret)

	var wg sync.WaitGroup
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, cfg.Kafka.Topic)
		dlq := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(repos.Outbox, publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlq),
			outbox.WithPollInterval(cfg.Outbox.PollInterval),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithMaxAttempts(cfg.Outbox.MaxAttempts),
			outbox.WithRetryBaseDelay(cfg.Outbox.RetryBaseDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	} else {
		logger.Warn("kafka не настроен, outbox-воркер не запущен")
	}

	srv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.Server.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("http shutdown with error")
		}
		stopWorker()
		wg.Wait()
		return ctx.Err()

	case err := <-errCh:
		stopWorker()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
