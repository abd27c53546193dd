package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dopeevents/dopeevents-backend/api/controllers"
	webhookcontrollers "github.com/dopeevents/dopeevents-backend/api/controllers/webhooks"
	"github.com/dopeevents/dopeevents-backend/api/middleware"
	"github.com/dopeevents/dopeevents-backend/internal/analytics"
	"github.com/dopeevents/dopeevents-backend/internal/events"
	"github.com/dopeevents/dopeevents-backend/internal/merchandise"
	"github.com/dopeevents/dopeevents-backend/internal/payments"
	"github.com/dopeevents/dopeevents-backend/internal/tickets"
	"github.com/dopeevents/dopeevents-backend/pkg/config"
	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/redis"
	"github.com/dopeevents/dopeevents-backend/pkg/stripe"
)

// Dependencies carries everything the HTTP surface needs. Grouping them in
// a struct keeps cmd/api readable as the service list grows.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Events      events.Service
	Merchandise merchandise.Service
	Payments    payments.Service
	CardPayment payments.CardService
	Tickets     tickets.Service
	Analytics   analytics.Service

	StripeClient *stripe.Client

	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.CORS(),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.VisitorTracking(deps.Analytics, logg),
	)

	initiatePolicy := middleware.NewRateLimitPolicy(
		"mpesa_initiate",
		cfg.RateLimit.InitiateWindow,
		cfg.RateLimit.InitiateIPLimit,
		cfg.RateLimit.InitiatePhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mpesa", webhookcontrollers.MpesaWebhook(deps.Payments, logg))
		// A nil *stripe.Client must not reach the handler as a non-nil interface.
		stripeHandler := webhookcontrollers.StripeWebhook(deps.CardPayment, nil, logg)
		if deps.StripeClient != nil {
			stripeHandler = webhookcontrollers.StripeWebhook(deps.CardPayment, deps.StripeClient, logg)
		}
		r.Post("/stripe", stripeHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.EventList(deps.Events, logg))
			r.Post("/", controllers.EventCreate(deps.Events, logg))
			r.Get("/{eventID}", controllers.EventGet(deps.Events, logg))
			r.Patch("/{eventID}", controllers.EventUpdate(deps.Events, logg))
			r.Post("/{eventID}/categories", controllers.EventAddTier(deps.Events, logg))
		})
		r.Get("/categories", controllers.CategoryList(deps.Events, logg))

		r.Route("/merchandise", func(r chi.Router) {
			r.Get("/", controllers.MerchandiseList(deps.Merchandise, logg))
			r.Post("/", controllers.MerchandiseCreate(deps.Merchandise, logg))
			r.Patch("/{itemID}", controllers.MerchandiseUpdate(deps.Merchandise, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(deps.Merchandise, logg))
				r.Post("/{orderID}/status", controllers.OrderTransition(deps.Merchandise, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(middleware.RateLimit(initiatePolicy, deps.Redis, logg)).
				Post("/mpesa/initiate", controllers.PaymentInitiate(deps.Payments, logg))
			r.Post("/stripe/intent", controllers.StripeIntentCreate(deps.CardPayment, logg))
			r.Get("/{transactionID}/status", controllers.PaymentStatus(deps.Payments, logg))
		})

		r.Get("/tickets/{code}", controllers.TicketConfirmation(deps.Tickets, logg))

		// gate-side transitions, addressed by ticket id rather than code
		r.Route("/admin/tickets", func(r chi.Router) {
			r.Post("/{ticketID}/use", controllers.TicketMarkUsed(deps.Tickets, logg))
			r.Post("/{ticketID}/cancel", controllers.TicketCancel(deps.Tickets, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/visitors", controllers.VisitorStats(deps.Analytics, logg))
			r.Get("/events/{eventID}", controllers.EventAnalytics(deps.Analytics, logg))
		})
	})

	return r
}
