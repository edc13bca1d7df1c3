package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smeazy/invoicing-backend/api/controllers"
	"github.com/smeazy/invoicing-backend/api/middleware"
	"github.com/smeazy/invoicing-backend/internal/auth"
	"github.com/smeazy/invoicing-backend/internal/identity"
	"github.com/smeazy/invoicing-backend/internal/invoices"
	"github.com/smeazy/invoicing-backend/internal/stats"
	"github.com/smeazy/invoicing-backend/pkg/auth/session"
	"github.com/smeazy/invoicing-backend/pkg/config"
	"github.com/smeazy/invoicing-backend/pkg/db"
	"github.com/smeazy/invoicing-backend/pkg/enums"
	"github.com/smeazy/invoicing-backend/pkg/logger"
	"github.com/smeazy/invoicing-backend/pkg/metrics"
	"github.com/smeazy/invoicing-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	authService auth.Service,
	identityService identity.Service,
	statsService stats.Service,
	invoiceService invoices.Service,
	httpMetrics *metrics.HTTPMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	loginLimiter := middleware.AuthRateLimit(loginPolicy, nil, logg)
	registerLimiter := middleware.AuthRateLimit(registerPolicy, nil, logg)
	if redisClient != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, redisClient, logg)
		registerLimiter = middleware.AuthRateLimit(registerPolicy, redisClient, logg)
	}

	if httpMetrics != nil {
		r.Method(http.MethodGet, "/metrics", httpMetrics.Handler())
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		if redisClient != nil {
			r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
		} else {
			r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, nil))
		}
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(registerLimiter).Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/received", controllers.InvoiceListReceived(invoiceService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleBusiness), logg))
				r.Post("/", controllers.InvoiceCreate(invoiceService, logg))
				r.Get("/", controllers.InvoiceListSent(invoiceService, logg))
				r.Get("/{invoiceNumber}", controllers.InvoiceGet(invoiceService, logg))
				r.Patch("/{invoiceNumber}", controllers.InvoiceUpdate(invoiceService, logg))
				r.Delete("/{invoiceNumber}", controllers.InvoiceDelete(invoiceService, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UserProfile(identityService, logg))
			r.Get("/me/stats", controllers.UserStats(statsService, logg))
			r.Get("/lookup", controllers.UserLookup(identityService, logg))
		})
	})

	return r
}
