package routes

import (
	"context"
	"errors"
	"fmt"

	"homefix_orders/internal/adapter/http/handlers"
	"homefix_orders/internal/adapter/persistence/memory"
	"homefix_orders/internal/adapter/persistence/postgres"
	"homefix_orders/internal/adapter/persistence/repository"
	"homefix_orders/internal/domain/lifecycle"
	"homefix_orders/internal/infrastructure/config"
	"homefix_orders/internal/infrastructure/database"
	"homefix_orders/internal/infrastructure/metrics"
	"homefix_orders/internal/infrastructure/notify"
	"homefix_orders/internal/infrastructure/payments"
	"homefix_orders/internal/usecase"
	"homefix_orders/internal/usecase/interfaces"

	"cloud.google.com/go/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type storage struct {
	orders   interfaces.IOrderRepository
	accounts interfaces.IAccountRepository
	services interfaces.IServiceRepository
	close    func() error
}

// app holds the wired handlers plus everything that must be released on shutdown.
type app struct {
	orderHandler   *handlers.OrderHandler
	paymentHandler *handlers.PaymentHandler
	adminHandler   *handlers.AdminHandler

	store    storage
	notifier *notify.AsyncNotifier
	closers  []func() error
}

func openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDynamoDB:
		ddb, err := database.ConnectDynamoDB(ctx, cfg)
		if err != nil {
			return storage{}, err
		}
		return storage{
			orders:   repository.NewOrderDynamoRepository(ddb, cfg.OrdersTable),
			accounts: repository.NewAccountDynamoRepository(ddb, cfg.AccountsTable),
			services: repository.NewServiceDynamoRepository(ddb, cfg.ServicesTable),
			close:    func() error { return nil },
		}, nil
	case config.StoragePostgres:
		db, err := database.ConnectPostgres(ctx, cfg)
		if err != nil {
			return storage{}, err
		}
		return storage{
			orders:   postgres.NewOrderRepository(db),
			accounts: postgres.NewAccountRepository(db),
			services: postgres.NewServiceRepository(db),
			close:    db.Close,
		}, nil
	case config.StorageMemory:
		store := memory.NewStore()
		return storage{orders: store, accounts: store, services: store, close: func() error { return nil }}, nil
	}
	return storage{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}

// newPubSubSink connects the optional external event channel.
func newPubSubSink(ctx context.Context, cfg *config.Config) (*notify.PubSubSink, func() error, error) {
	client, err := pubsub.NewClient(ctx, cfg.PubSubProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.PubSubTopic)
	sink, err := notify.NewPubSubSink(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return sink, func() error {
		topic.Stop()
		return client.Close()
	}, nil
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*app, error) {
	registry := lifecycle.NewRegistry()
	policy, err := cfg.RolePolicy(registry)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, closers: []func() error{store.close}}

	orderMetrics := metrics.NewOrderMetrics(reg)

	hub := notify.NewHub(logger)
	sinks := []notify.Sink{hub}
	if cfg.PubSubProjectID != "" {
		sink, closeSink, err := newPubSubSink(ctx, cfg)
		if err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, sink)
		a.closers = append(a.closers, closeSink)
		logger.Info("notify.pubsub.enabled", zap.String("project", cfg.PubSubProjectID), zap.String("topic", cfg.PubSubTopic))
	}
	a.notifier = notify.NewAsyncNotifier(notify.Options{
		Buffer:  cfg.NotifyBuffer,
		Workers: cfg.NotifyWorkers,
	}, logger, orderMetrics, sinks...)

	orderUseCase, err := usecase.NewOrderUseCase(usecase.OrderUseCaseDeps{
		Orders:   store.orders,
		Services: store.services,
		Accounts: store.accounts,
		Notifier: a.notifier,
		Metrics:  orderMetrics,
		Registry: registry,
		Policy:   policy,
		Logger:   logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	cascadeUseCase := usecase.NewBlacklistCascadeUseCase(store.orders, store.accounts, orderUseCase, orderMetrics, logger, usecase.CascadeOptions{
		Concurrency: cfg.CascadeConcurrency,
		Timeout:     cfg.CascadeTimeout,
	})

	var verifier interfaces.IPaymentVerifier
	mpVerifier, err := payments.NewMercadoPagoVerifier(cfg.MercadoPagoAccessToken, cfg.PaymentGatewayMock, logger)
	if err != nil {
		logger.Warn("payments.gateway.disabled", zap.Error(err))
	} else {
		verifier = mpVerifier
	}
	paymentUseCase := usecase.NewPaymentUseCase(orderUseCase, verifier, policy, logger)

	a.orderHandler = handlers.NewOrderHandler(orderUseCase, hub, logger)
	a.paymentHandler = handlers.NewPaymentHandler(paymentUseCase)
	a.adminHandler = handlers.NewAdminHandler(cascadeUseCase)
	return a, nil
}

// shutdown drains queued notifications before releasing connections.
func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if a.notifier != nil {
		errs = append(errs, a.notifier.Close(ctx))
	}
	errs = append(errs, a.close())
	return errors.Join(errs...)
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
