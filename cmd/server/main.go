package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/product"
	"storefront-be/internal/redis"
	"storefront-be/internal/rest"
	"storefront-be/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	loadConfigFunc  = config.Load
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

// app is the wired HTTP surface plus whatever must be released on exit.
type app struct {
	handler http.Handler
	limiter *middleware.Limiter
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (*app, error) {
	a := &app{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPipeline(reg)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	productRepo := product.NewRepository(database)
	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo, cart.WithMetrics(m))
	userSvc := user.NewService(user.NewRepository(database), cartSvc, issuer)

	gateways, err := newGateways(cfg, m)
	if err != nil {
		return nil, err
	}

	orderRepo := order.NewRepository(database, cartRepo, product.NewLedger(productRepo))
	orderSvc := order.NewService(orderRepo, cartSvc, userSvc, gateways, order.WithMetrics(m))

	hookCfg := webhook.Config{StripeSecret: cfg.Stripe.WebhookSecret}
	if cfg.PayPal.ClientID != "" && cfg.PayPal.WebhookID != "" {
		verifier, err := payment.NewPayPalWebhookVerifier(paypalConfig(cfg), m)
		if err != nil {
			return nil, err
		}
		hookCfg.PayPal = verifier
	} else {
		logger.L().Warn("PAYPAL_WEBHOOK_ID not set, paypal webhooks are refused")
	}
	hooks := webhook.NewWebhookHandler(orderSvc, payment.NewRepository(database), hookCfg)

	health := map[string]rest.HealthCheck{"postgres": database.PingContext}

	var idem redis.IdempotencyStore
	if cfg.RedisURL != "" {
		rc, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		idem = rc
		health["redis"] = rc.Ping
		a.closers = append(a.closers, rc.Close)
	} else {
		logger.L().Warn("REDIS_URL not set, idempotency keys are ignored")
	}

	secure := cfg.AppEnv == "production"
	a.limiter = middleware.NewLimiter()
	a.handler = rest.NewRouter(
		rest.NewHandler(cartSvc, userSvc, orderSvc, issuer, secure),
		rest.RouterConfig{
			Issuer:         issuer,
			Webhooks:       hooks,
			Limiter:        a.limiter,
			Idempotency:    idem,
			IdempotencyTTL: cfg.IdempotencyTTL,
			Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			Health:         health,
			SecureCookies:  secure,
		},
	)

	return a, nil
}

func paypalConfig(cfg *config.Config) payment.PayPalConfig {
	return payment.PayPalConfig{
		ClientID:  cfg.PayPal.ClientID,
		Secret:    cfg.PayPal.Secret,
		APIURL:    cfg.PayPal.APIURL,
		WebhookID: cfg.PayPal.WebhookID,
		Timeout:   cfg.ProviderTimeout,
	}
}

// newGateways registers every provider that has credentials configured.
func newGateways(cfg *config.Config, m *metrics.Pipeline) (*payment.Registry, error) {
	reg := payment.NewRegistry()

	if cfg.PayPal.ClientID != "" {
		pp, err := payment.NewPayPalGateway(paypalConfig(cfg), m)
		if err != nil {
			return nil, err
		}
		reg.Register(string(user.PaymentPayPal), pp)
	} else {
		logger.L().Warn("PayPal credentials not set, provider disabled")
	}

	if cfg.Stripe.SecretKey != "" {
		reg.Register(string(user.PaymentStripe), payment.NewStripeGateway(payment.StripeConfig{
			SecretKey: cfg.Stripe.SecretKey,
			APIURL:    cfg.Stripe.APIURL,
			Currency:  cfg.Stripe.Currency,
			Timeout:   cfg.ProviderTimeout,
		}, m))
	} else {
		logger.L().Warn("Stripe credentials not set, provider disabled")
	}

	return reg, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DBHost == "" {
		return errors.New("DB_HOST is not set")
	}

	if err := logger.Init(logger.Options{Env: cfg.AppEnv, Level: cfg.LogLevel}); err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.L()

	database, err := initDBFunc(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	a, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer a.Close()

	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go a.limiter.Run(limiterCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server running", zap.String("port", cfg.AppPort))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
