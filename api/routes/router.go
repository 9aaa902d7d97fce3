package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nyeinchan/shwecart-backend/api/controllers"
	"github.com/nyeinchan/shwecart-backend/api/middleware"
	"github.com/nyeinchan/shwecart-backend/internal/assignments"
	checkoutsvc "github.com/nyeinchan/shwecart-backend/internal/checkout"
	"github.com/nyeinchan/shwecart-backend/internal/orders"
	"github.com/nyeinchan/shwecart-backend/internal/payments"
	"github.com/nyeinchan/shwecart-backend/internal/refunds"
	"github.com/nyeinchan/shwecart-backend/internal/riders"
	"github.com/nyeinchan/shwecart-backend/internal/settings"
	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/db"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
	"github.com/nyeinchan/shwecart-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redis.Client

	Registry *prometheus.Registry

	Checkout    checkoutsvc.Service
	Orders      orders.Service
	Payments    payments.Service
	Assignments assignments.Service
	Refunds     refunds.Service
	Riders      riders.Service
	Settings    settings.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Gateway callbacks authenticate out of band, not with user tokens.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/kpay", controllers.KPayWebhook(deps.Payments, logg))
	})

	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/orders-enabled", controllers.OrdersEnabled(deps.Settings, logg))
		r.Post("/checkout", controllers.SubmitOrder(deps.Checkout, logg))
		r.Get("/payments/{paymentId}/status", controllers.PaymentStatus(deps.Payments, logg))
		r.Post("/payments/{paymentId}/client-timeout", controllers.PaymentClientTimeout(deps.Payments, logg))
		r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		staff := []string{"staff", "admin"}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(staff, logg))

			r.Get("/orders", controllers.ListOrders(deps.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Post("/orders/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Get("/orders/{orderId}/payments", controllers.ListOrderPayments(deps.Payments, logg))
			r.Get("/orders/{orderId}/assignments", controllers.OrderAssignmentHistory(deps.Assignments, logg))

			r.Post("/assignments", controllers.CreateAssignment(deps.Assignments, logg))

			r.Post("/riders", controllers.CreateRider(deps.Riders, logg))
			r.Get("/riders", controllers.ListRiders(deps.Riders, logg))
			r.Get("/riders/{riderId}", controllers.GetRider(deps.Riders, logg))
			r.Patch("/riders/{riderId}/status", controllers.SetRiderStatus(deps.Riders, logg))

			r.Post("/refunds/items/{itemId}/decision", controllers.DecideItemRefund(deps.Refunds, logg))
			r.Post("/refunds/orders/{orderId}/decision", controllers.DecideOrderRefund(deps.Refunds, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Put("/settings/orders-enabled", controllers.SetOrdersEnabled(deps.Settings, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("rider", logg))
			r.Post("/assignments/{assignmentId}/respond", controllers.RespondAssignment(deps.Assignments, logg))
			r.Post("/assignments/{assignmentId}/complete", controllers.CompleteAssignment(deps.Assignments, logg))
		})

		// Customers open refund requests; staff read earnings too.
		r.Group(func(r chi.Router) {
			r.Post("/orders/{orderId}/items/{itemId}/refund", controllers.RequestItemRefund(deps.Refunds, logg))
			r.Delete("/refunds/items/{itemId}", controllers.CancelItemRefund(deps.Refunds, logg))
			r.Post("/orders/{orderId}/refund", controllers.RequestOrderRefund(deps.Refunds, logg))
			r.Delete("/orders/{orderId}/refund", controllers.CancelOrderRefund(deps.Refunds, logg))

			r.Get("/riders/{riderId}/earnings", controllers.RiderEarnings(deps.Assignments, logg))
			r.Get("/riders/leaderboard", controllers.RiderLeaderboard(deps.Assignments, logg))
		})
	})

	return r
}
