package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	customerapp "github.com/k-code-yt/go-order-placement/internal/customer/application"
	"github.com/k-code-yt/go-order-placement/internal/feed"
	"github.com/k-code-yt/go-order-placement/internal/grpcserver"
	"github.com/k-code-yt/go-order-placement/internal/handlers"
	"github.com/k-code-yt/go-order-placement/internal/order/application"
	"github.com/k-code-yt/go-order-placement/internal/outbox"
	productapp "github.com/k-code-yt/go-order-placement/internal/product/application"
	"github.com/k-code-yt/go-order-placement/pkg/config"
	pkgkafka "github.com/k-code-yt/go-order-placement/pkg/kafka"
	"github.com/k-code-yt/go-order-placement/pkg/logger"
	"github.com/k-code-yt/go-order-placement/pkg/metrics"
	"github.com/k-code-yt/go-order-placement/pkg/ratelimiter"
	"github.com/k-code-yt/go-order-placement/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	config.LoadEnv()
	cfg := config.NewAppConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("SERVER:FAILED")
	}
	logrus.Info("SERVER:STOPPED")
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	shutdownTracing, err := tracing.SetupTracingSDK(ctx, &tracing.Config{
		Endpoint: cfg.OtelEndpoint,
		Insecure: cfg.OtelInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logrus.WithError(err).Warn("TRACING:SHUTDOWN_FAILED")
		}
	}()

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	b, err := newBackend(cfg.StoreBackend)
	if err != nil {
		return err
	}
	defer b.close()

	hub := feed.NewHub()
	orderOpts := []application.CreateOrderOption{application.WithNotifier(hub)}
	if cfg.LookupMode == config.LookupMode_Lenient {
		orderOpts = append(orderOpts, application.WithLenientProductLookup())
	}

	var limiter *ratelimiter.PerClientLimiter
	routerCfg := &handlers.RouterConfig{
		Customers:    customerapp.NewCustomerService(b.customers),
		Products:     productapp.NewProductService(b.products),
		OrderCreator: application.NewCreateOrderService(b.tx, orderOpts...),
		OrderFinder:  application.NewFindOrderService(b.orders, b.customers),
		Feed:         hub,
		Store:        b,
		Metrics:      metrics.Handler(reg),
	}
	if cfg.RateLimitMaxTokens > 0 {
		limiter = ratelimiter.NewPerClientLimiter(ratelimiter.Config{
			MaxTokens:  cfg.RateLimitMaxTokens,
			RefillRate: cfg.RateLimitRefillPerSecond,
		})
		routerCfg.Limiter = limiter
	}
	router := handlers.NewRouter(routerCfg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 5,
	}
	grpcSrv := grpcserver.NewGRPCServer(cfg.GRPCAddr, b, cfg.HealthCheckInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"addr":    cfg.HTTPAddr,
			"backend": cfg.StoreBackend,
			"lookup":  cfg.LookupMode,
		}).Info("HTTP:LISTENING")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return grpcSrv.Listen()
	})

	g.Go(func() error {
		return grpcSrv.WatchHealth(gctx)
	})

	if limiter != nil {
		g.Go(func() error {
			return limiter.Run(gctx)
		})
	}

	if cfg.OutboxRelayInProcess {
		relay, closeRelay, err := newRelay(cfg, b.events)
		if err != nil {
			return err
		}
		defer closeRelay()
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("SERVER:SHUTTING_DOWN")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// hijacked websocket connections are not tracked by Shutdown
		hub.Close()
		grpcSrv.Stop()
		if err != nil {
			return fmt.Errorf("server failed shutdown gracefully: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newRelay(cfg *config.AppConfig, events outbox.PendingEvents) (*outbox.Relay, func(), error) {
	kafkaCfg := pkgkafka.NewKafkaConfig()
	encoder, err := pkgkafka.NewMsgEncoder(kafkaCfg.MsgEncoderType, pkgkafka.OrderCreatedAvroSchema)
	if err != nil {
		return nil, nil, err
	}
	producer, err := pkgkafka.NewKafkaProducer(kafkaCfg)
	if err != nil {
		return nil, nil, err
	}

	relay := outbox.NewRelay(events, producer, encoder, outbox.RelayConfig{
		Topic:        kafkaCfg.OrderTopic,
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
	})
	return relay, producer.Close, nil
}
