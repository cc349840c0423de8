package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubebeneficios/clube-api/internal/domain/auth"
	"github.com/clubebeneficios/clube-api/internal/domain/balance"
	"github.com/clubebeneficios/clube-api/internal/domain/expiration"
	"github.com/clubebeneficios/clube-api/internal/domain/notification"
	"github.com/clubebeneficios/clube-api/internal/domain/partner"
	"github.com/clubebeneficios/clube-api/internal/domain/payment"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/realtime"
	"github.com/clubebeneficios/clube-api/internal/domain/report"
	"github.com/clubebeneficios/clube-api/internal/domain/sale"
	"github.com/clubebeneficios/clube-api/internal/domain/subscriber"
	"github.com/clubebeneficios/clube-api/internal/domain/transaction"
	"github.com/clubebeneficios/clube-api/internal/middleware"
	pkgresponse "github.com/clubebeneficios/clube-api/internal/pkg/response"
)

// app holds the HTTP handlers and the router-level settings.
type app struct {
	auth          *auth.Handler
	plans         *plan.Handler
	partners      *partner.Handler
	subscribers   *subscriber.Handler
	balances      *balance.Handler
	transactions  *transaction.Handler
	sales         *sale.Handler
	payments      *payment.Handler
	notifications *notification.Handler
	reports       *report.Handler
	sweep         *expiration.Handler
	realtime      *realtime.Handler

	authMiddleware func(http.Handler) http.Handler
	cronSecret     string
	allowedOrigins []string
	filesDir       string
	serveFiles     bool
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORSHandler(a.allowedOrigins))

	// WebSocket endpoint; the auth middleware also reads ?access_token=
	r.With(a.authMiddleware).Get("/ws", a.realtime.WebSocket)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Gateways call back without a user token; each provider verifies its signature.
	r.Post("/webhooks/{provider}", a.payments.Webhook)

	if a.serveFiles {
		r.With(a.authMiddleware, middleware.RequirePartner()).
			Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(a.filesDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", a.auth.Routes(a.authMiddleware))
		r.Mount("/plans", a.plans.Routes())

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", a.partners.List)
			r.Get("/{id}", a.partners.Get)
			r.Get("/{id}/benefits", a.plans.PartnerBenefits)
			r.Post("/{id}/view", a.partners.View)
			r.Post("/{id}/click", a.partners.Click)

			r.Group(func(r chi.Router) {
				r.Use(a.authMiddleware, middleware.RequirePartner())
				r.Get("/me/transactions", a.transactions.ListPartner)
				r.Get("/me/dashboard", a.transactions.Dashboard)
				r.Post("/me/reports/sales", a.reports.ExportSales)
			})
		})

		r.Route("/sales", func(r chi.Router) {
			r.Use(a.authMiddleware, middleware.RequirePartner())
			r.Mount("/", a.sales.Routes())
		})

		r.Route("/subscribers", func(r chi.Router) {
			r.Use(a.authMiddleware, middleware.RequireSubscriber())
			r.Post("/", a.subscribers.Register)
			r.Get("/me", a.subscribers.Me)
			r.Post("/me/cancel", a.subscribers.Cancel)
			r.Put("/me/push-token", a.subscribers.PushToken)
			r.Get("/me/balance", a.balances.Balance)
			r.Get("/me/cashback", a.balances.Cashback)
			r.Get("/me/cashback/{partnerId}", a.balances.PartnerCashback)
			r.Get("/me/transactions", a.transactions.ListMine)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(a.authMiddleware, middleware.RequireSubscriber())
			r.Mount("/", a.payments.Routes())
		})

		r.Mount("/notifications", a.notifications.Routes(a.authMiddleware))

		r.Route("/admin", func(r chi.Router) {
			r.Use(a.authMiddleware, middleware.RequireAdmin())
			r.Patch("/subscribers/{id}/status", a.subscribers.SetStatus)
		})

		r.With(middleware.CronSecret(a.cronSecret)).Post("/jobs/expiration-sweep", a.sweep.Run)
	})

	return r
}
