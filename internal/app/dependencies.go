package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
	"github.com/Harish222600/sonica-backend/internal/storage/postgres"
)

// Repositories объединяет все хранилища приложения.
type Repositories struct {
	Products   domain.ProductRepository
	Ledger     domain.StockLedger
	Carts      domain.CartRepository
	Orders     domain.OrderRepository
	Deliveries domain.DeliveryRepository
	Partners   domain.PartnerRepository
	Reviews    domain.ReviewRepository
	Outbox     domain.OutboxRepository

	// Store не nil только для Postgres-драйвера; используется для
	// health check и закрытия подключения.
	Store *postgres.Store
}

// Close освобождает ресурсы хранилища.
func (r *Repositories) Close() error {
	if r.Store != nil {
		return r.Store.Close()
	}
	return nil
}

// initStorage создаёт хранилища по выбранному драйверу.
func initStorage(ctx context.Context, cfg StorageConfig, logger *log.Entry) (*Repositories, error) {
	switch cfg.Driver {
	case StorageDriverMemory:
		products := memory.NewProductStore()
		logger.Info("используем in-memory хранилище")
		return &Repositories{
			Products:   products,
			Ledger:     products,
			Carts:      memory.NewCartRepository(),
			Orders:     memory.NewOrderRepository(),
			Deliveries: memory.NewDeliveryRepository(),
			Partners:   memory.NewPartnerRepository(),
			Reviews:    memory.NewReviewRepository(),
			Outbox:     memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.PoolConfig{
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if cfg.AutoMigrate {
			if err := store.MigrateUp(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("миграции применены")
		}

		products := postgres.NewProductRepository(store)
		logger.Info("используем postgres хранилище")
		return &Repositories{
			Products:   products,
			Ledger:     products,
			Carts:      postgres.NewCartRepository(store),
			Orders:     postgres.NewOrderRepository(store),
			Deliveries: postgres.NewDeliveryRepository(store),
			Partners:   postgres.NewPartnerRepository(store),
			Reviews:    postgres.NewReviewRepository(store),
			Outbox:     postgres.NewOutboxRepository(store),
			Store:      store,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
