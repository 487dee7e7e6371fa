package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpin "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/adapters/out/metrics"
	"fulfillment/internal/adapters/out/notify"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/postgres/catalogrepo"
	"fulfillment/internal/adapters/out/postgres/driverrepo"
	"fulfillment/internal/adapters/out/postgres/jobrepo"
	"fulfillment/internal/adapters/out/postgres/reviewrepo"
	"fulfillment/internal/adapters/out/rabbitmq"
	"fulfillment/internal/adapters/out/redis"
	"fulfillment/internal/core/application/dispatch"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

const rabbitDialAttempts = 5

type storage struct {
	jobs    ports.JobRepository
	drivers ports.DriverRepository
	reviews ports.ReviewRepository
	catalog ports.Catalog
}

// CompositionRoot owns every long-lived component and the order in which
// they are released.
type CompositionRoot struct {
	Coordinator    *dispatch.Coordinator
	Server         *httpin.Server
	Jobs           *jobs.JobManager
	MetricsHandler http.Handler

	closers []func() error
}

func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (_ *CompositionRoot, err error) {
	root := &CompositionRoot{}
	defer func() {
		if err != nil {
			_ = root.Close()
		}
	}()

	store, err := root.openStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := root.openNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	root.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	fees, err := services.NewFeeCalculator(cfg.Fees)
	if err != nil {
		return nil, err
	}

	root.Coordinator, err = dispatch.NewCoordinator(dispatch.Deps{
		Jobs:     store.jobs,
		Drivers:  store.drivers,
		Reviews:  store.reviews,
		Catalog:  store.catalog,
		Fees:     fees,
		Notifier: notifier,
		Metrics:  metrics.NewMetrics(registry, logger),
		Logger:   logger,
		Clock:    time.Now,
	}, cfg.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("build coordinator: %w", err)
	}

	root.Jobs, err = jobs.NewJobManager(root.Coordinator, cfg.Jobs, logger)
	if err != nil {
		return nil, err
	}

	root.Server = httpin.NewServer(root.Coordinator, []byte(cfg.JWTSecret), time.Now)
	return root, nil
}

func (c *CompositionRoot) openStorage(cfg Config, logger *slog.Logger) (storage, error) {
	switch cfg.Storage {
	case StoragePostgres:
		db, err := postgres.Open(cfg.DSN(), postgres.Options{
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
		})
		if err != nil {
			return storage{}, err
		}
		c.closers = append(c.closers, func() error { return postgres.Close(db) })
		if err := postgres.Migrate(db); err != nil {
			return storage{}, err
		}
		logger.Info("Using postgres storage", "host", cfg.DBHost, "database", cfg.DBName)
		return storage{
			jobs:    jobrepo.NewGormJobRepository(db),
			drivers: driverrepo.NewGormDriverRepository(db),
			reviews: reviewrepo.NewGormReviewRepository(db),
			catalog: catalogrepo.NewGormCatalog(db),
		}, nil

	case StorageMemory:
		catalog := memory.NewCatalog(nil, nil)
		if cfg.CatalogFile != "" {
			loaded, err := memory.LoadCatalogFile(cfg.CatalogFile)
			if err != nil {
				return storage{}, err
			}
			catalog = loaded
		}
		logger.Info("Using in-memory storage", "catalog", cfg.CatalogFile)
		return storage{
			jobs:    memory.NewJobRepository(),
			drivers: memory.NewDriverRepository(),
			reviews: memory.NewReviewRepository(),
			catalog: catalog,
		}, nil
	}
	return storage{}, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// openNotifier connects the configured event sinks. With none configured
// events are dropped.
func (c *CompositionRoot) openNotifier(ctx context.Context, cfg Config, logger *slog.Logger) (ports.Notifier, error) {
	var sinks notify.Fanout

	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Dial(ctx, cfg.RabbitMQURL, rabbitDialAttempts, logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, conn.Close)
		publisher, err := rabbitmq.NewNotifier(conn.Channel(), cfg.RabbitMQExchange)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, publisher)
		logger.Info("Publishing job events to rabbitmq", "exchange", cfg.RabbitMQExchange)
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		c.closers = append(c.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		sinks = append(sinks, redis.NewAnalyticsNotifier(client, redis.DefaultRetention))
		logger.Info("Recording job analytics in redis", "addr", cfg.RedisAddr)
	}

	if len(sinks) == 0 {
		return notify.Noop{}, nil
	}
	return sinks, nil
}

// Close releases resources in reverse order of acquisition.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	c.closers = nil
	return errors.Join(errList...)
}
