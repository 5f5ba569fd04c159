package rest

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/redis"
	"storefront-be/internal/result"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Issuer         *auth.Issuer
	Webhooks       *webhook.Handler
	Limiter        *middleware.Limiter
	Idempotency    redis.IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        http.Handler
	Health         map[string]HealthCheck
	SecureCookies  bool
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
	)

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		limit = cfg.Limiter.Middleware
	}
	idem := middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL)

	r.Get("/healthz", healthz(cfg.Health))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	if cfg.Webhooks != nil {
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(limit)
			r.Post("/stripe", cfg.Webhooks.Stripe)
			r.Post("/paypal", cfg.Webhooks.PayPal)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Issuer, cfg.SecureCookies), limit)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{productId}", h.RemoveItem)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-in", h.SignIn)
			r.Post("/sign-up", h.SignUp)
			r.Post("/sign-out", h.SignOut)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Put("/address", h.UpdateAddress)
			r.Put("/payment-method", h.UpdatePaymentMethod)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListMyOrders)
			r.Get("/{id}", h.GetOrder)
			r.With(idem).Post("/{id}/pay", h.PayOrder)
			r.With(idem).Post("/{id}/capture", h.CaptureOrder)
		})

		r.Route("/admin/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/summary", h.OrderSummary)
			r.With(idem).Post("/{id}/cod", h.MarkPaidCOD)
			r.With(idem).Post("/{id}/deliver", h.DeliverOrder)
		})
	})

	return r
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.FromCtx(ctx).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		result.Write(w, code, status)
	}
}
