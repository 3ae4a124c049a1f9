package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application/fulfillment"
	appOrder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domainOrder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/cache"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/config"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/identity"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	mongostore "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/mongo"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	orderworker "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/order/worker"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
)

const demoBatchSize = 5

type stores struct {
	products       catalog.Repository
	orders         domainOrder.Repository
	reconciliation domainOrder.ReconciliationRepository
	close          func(context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	tracer := oteltrace.New(cfg.ServiceName, oteltrace.WithAttributes(
		attribute.String("service.env", cfg.Env),
		attribute.String("store.backend", cfg.StoreBackend),
	))
	tel := infraobs.NewPrometheus(nil, tracer, zaplogger.New(baseLogger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			systemLogger.Error("store_close_error", zap.Error(err))
		}
	}()

	invalidator, closeCache, err := openCache(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	defer closeCache()

	// In-memory event bus; reservation-incomplete events flow through it.
	bus := outbox.NewBus(tel)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	ids := id.NewUUIDGenerator()
	verifier := identity.NewJWTVerifier(cfg.JWTSecret, tel.Logger())

	placeOrder := appOrder.NewPlaceOrderUseCase(appOrder.PlaceOrderDeps{
		Products:  st.products,
		Orders:    st.orders,
		Identity:  verifier,
		Cache:     invalidator,
		Publisher: bus,
		IDs:       ids,
		Clock:     appOrder.SystemClock,
	}, appOrder.PlaceOrderOptions{
		Pricing: appOrder.PricingConfig{
			TaxRate:               cfg.TaxRate,
			ShippingFee:           cfg.ShippingFee,
			FreeShippingThreshold: cfg.FreeShippingThreshold,
		},
		ReserveConcurrency: cfg.ReserveConcurrency,
	}, tel)
	listOrders := appOrder.NewListCustomerOrdersUseCase(st.orders, tel)

	reconciliation := appOrder.NewReconciliationWorker(
		st.reconciliation,
		workerpresentation.Subscriber(bus, tel.Logger()),
		ids,
		appOrder.SystemClock,
		tel,
	)
	reconciliation.Start()

	if cfg.DemoMode {
		advance := fulfillment.NewAdvanceOrdersUseCase(st.orders, appOrder.SystemClock.Now, tel)
		simulator := orderworker.New(advance, cfg.DemoInterval, demoBatchSize, tel.Logger())
		simulator.Start(ctx)
		defer simulator.Stop()
		systemLogger.Info("demo_fulfillment_enabled", zap.Duration("interval", cfg.DemoInterval))
	}

	handler := httppresentation.NewHandler(httppresentation.HandlerDeps{
		PlaceOrder:     placeOrder,
		ListOrders:     listOrders,
		Reconciliation: reconciliation,
		Identity:       verifier,
		Metrics:        promhttp.Handler(),
	}, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store_backend", cfg.StoreBackend),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("http_server_error", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("store_backend_memory", zap.Int("seed_products", len(memory.DemoProducts())))
		return stores{
			products:       memory.NewProductRepository(memory.DemoProducts()...),
			orders:         memory.NewOrderRepository(),
			reconciliation: memory.NewReconciliationRepository(),
			close:          func(context.Context) error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return stores{}, err
	}
	if err := mongostore.EnsureIndexes(connectCtx, db); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return stores{}, err
	}
	products := mongostore.NewProductRepository(db)
	if cfg.DemoMode {
		if err := products.Seed(connectCtx, memory.DemoProducts()...); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return stores{}, err
		}
	}
	logger.Info("store_backend_mongo", zap.String("database", cfg.MongoDBName))

	return stores{
		products:       products,
		orders:         mongostore.NewOrderRepository(db),
		reconciliation: mongostore.NewReconciliationRepository(db),
		close:          db.Client().Disconnect,
	}, nil
}

// openCache returns the Redis invalidator when Redis is configured. An
// unreachable Redis is logged and kept: invalidation is best-effort.
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (appOrder.CacheInvalidator, func(), error) {
	if cfg.RedisURL == "" && cfg.RedisAddr == "" {
		logger.Info("cache_disabled")
		return cache.Nop{}, func() {}, nil
	}

	client, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	inv := cache.NewRedisInvalidator(client)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := inv.Ping(pingCtx); err != nil {
		logger.Warn("cache_unreachable", zap.Error(err))
	}
	return inv, func() { _ = client.Close() }, nil
}
