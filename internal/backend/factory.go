package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/kafka"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
	"budget/internal/store/memory"
	"budget/internal/store/postgres"
	"budget/internal/store/sqlite"
)

const cacheCleanupInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the base store and layers the optional cache and
// notifier over it, innermost first.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base, err := f.openBase(ctx, config)
	if err != nil {
		return nil, err
	}

	var s store.Store = base
	var cleanups []CleanupFunc

	if config.CacheSize > 0 {
		cached := cache.NewStore(s, config.CacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(cached.Cleaner())
		manager.StartCleanup(cacheCleanupInterval)
		cleanups = append(cleanups, manager.Stop)
		s = cached
		f.logger.Info("Enabled read cache", "max_size", config.CacheSize, "ttl", config.CacheTTL)
	}

	switch config.Notify {
	case NotifyAMQP:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			// saves still succeed without notifications
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
			s = services.NewNotifyingStore(s, nil)
		} else {
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
			s = services.NewNotifyingStore(s, client)
		}
	case NotifyKafka:
		s = services.NewNotifyingStore(s, kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic))
		f.logger.Info("Initialized Kafka publisher", "brokers", config.KafkaBrokers, "topic", config.KafkaTopic)
	}

	outer := s
	cleanups = append(cleanups, func() error {
		if c, ok := outer.(store.Closer); ok {
			return c.Close()
		}
		return nil
	})

	return &BackendResult{
		Store: s,
		Cleanup: func() error {
			var errs []error
			for _, fn := range cleanups {
				errs = append(errs, fn())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openBase(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		pg, err := postgres.Open(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return pg, nil
	case MemoryBackend:
		if config.DataDirectory == "" {
			f.logger.Info("Initialized memory backend")
			return memory.New(), nil
		}
		f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)
		return memory.NewFromFiles(config.DataDirectory, config.StorageKey), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
