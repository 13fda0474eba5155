package router

import (
	"net/http"

	"aecoin-store-api/internal/handler"
	"aecoin-store-api/internal/metrics"
	"aecoin-store-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	SessionHandler *handler.SessionHandler
	PackageHandler *handler.PackageHandler
	OrderHandler   *handler.OrderHandler
	PaymentHandler *handler.PaymentHandler
	RankingHandler *handler.RankingHandler
	HeroHandler    *handler.HeroHandler
	AdminHandler   *handler.AdminHandler

	SessionAuth func(http.Handler) http.Handler
	AdminAuth   func(http.Handler) http.Handler
	RateLimit   func(http.Handler) http.Handler

	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware stack (applies to ALL routes)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.NewRecovery(cfg.Logger))
	r.Use(middleware.NewLogging(cfg.Logger, cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Token", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	rateLimited := func(r chi.Router) chi.Router {
		if cfg.RateLimit != nil {
			return r.With(cfg.RateLimit)
		}
		return r
	}

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Public storefront content
		if cfg.PackageHandler != nil {
			r.Get("/packages", cfg.PackageHandler.List)
		}
		if cfg.RankingHandler != nil {
			r.Get("/rankings", cfg.RankingHandler.List)
		}
		if cfg.HeroHandler != nil {
			r.Get("/hero", cfg.HeroHandler.Active)
		}

		// Gateway webhooks authenticate by signature.
		if cfg.PaymentHandler != nil {
			r.Route("/payments/billplz", func(r chi.Router) {
				rateLimited(r).Post("/callback", cfg.PaymentHandler.Callback)
				rateLimited(r).Get("/redirect", cfg.PaymentHandler.Redirect)
			})
		}

		if cfg.SessionHandler != nil {
			rateLimited(r).Post("/session", cfg.SessionHandler.Create)
		}

		// Customer routes
		r.Group(func(r chi.Router) {
			if cfg.SessionAuth != nil {
				r.Use(cfg.SessionAuth)
			}

			if cfg.SessionHandler != nil {
				r.Get("/session", cfg.SessionHandler.Get)
				r.Delete("/session", cfg.SessionHandler.Revoke)
				r.Post("/session/refresh", cfg.SessionHandler.Refresh)
			}

			if cfg.OrderHandler != nil {
				r.Route("/orders", func(r chi.Router) {
					rateLimited(r).Post("/", cfg.OrderHandler.Checkout)
					r.Get("/", cfg.OrderHandler.List)
					r.Get("/{id}", cfg.OrderHandler.Get)
					r.Get("/{id}/codes", cfg.OrderHandler.Codes)
				})
			}
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			if cfg.AdminAuth != nil {
				r.Use(cfg.AdminAuth)
			}

			if cfg.AdminHandler != nil {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Get("/payments/{bill_id}/events", cfg.AdminHandler.GetPaymentEvents)
			}

			if cfg.OrderHandler != nil {
				r.Get("/orders", cfg.OrderHandler.Search)
			}

			if cfg.PackageHandler != nil {
				r.Route("/packages", func(r chi.Router) {
					r.Get("/", cfg.PackageHandler.ListAll)
					r.Post("/", cfg.PackageHandler.Create)
					r.Patch("/{id}", cfg.PackageHandler.Update)
					r.Delete("/{id}", cfg.PackageHandler.Delete)
				})
			}

			if cfg.RankingHandler != nil {
				r.Route("/rankings", func(r chi.Router) {
					r.Get("/", cfg.RankingHandler.List)
					r.Post("/", cfg.RankingHandler.Upsert)
					r.Post("/seed", cfg.RankingHandler.Seed)
					r.Get("/{id}", cfg.RankingHandler.Get)
					r.Patch("/{id}", cfg.RankingHandler.Update)
					r.Delete("/{id}", cfg.RankingHandler.Delete)
				})
			}

			if cfg.HeroHandler != nil {
				r.Route("/hero", func(r chi.Router) {
					r.Get("/", cfg.HeroHandler.List)
					r.Post("/", cfg.HeroHandler.Create)
					r.Patch("/{id}", cfg.HeroHandler.Update)
					r.Delete("/{id}", cfg.HeroHandler.Delete)
				})
			}
		})
	})

	return r
}
