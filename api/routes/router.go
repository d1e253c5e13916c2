package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campuslink/campuslink-backend/api/controllers"
	"github.com/campuslink/campuslink-backend/api/middleware"
	"github.com/campuslink/campuslink-backend/internal/auth"
	"github.com/campuslink/campuslink-backend/internal/books"
	"github.com/campuslink/campuslink-backend/internal/cart"
	"github.com/campuslink/campuslink-backend/internal/notifications"
	"github.com/campuslink/campuslink-backend/internal/orders"
	"github.com/campuslink/campuslink-backend/internal/transactions"
	"github.com/campuslink/campuslink-backend/internal/wishlist"
	"github.com/campuslink/campuslink-backend/pkg/config"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/campuslink/campuslink-backend/pkg/metrics"
)

// Services bundles the wired domain services the router exposes.
type Services struct {
	Auth          auth.Service
	Books         books.Service
	Cart          cart.Service
	Wishlist      wishlist.Service
	Transactions  transactions.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	httpMetrics *metrics.HTTPMetrics,
	promRegistry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/otp/request", controllers.AuthRequestOTP(svcs.Auth, logg))
		r.Post("/otp/verify", controllers.AuthVerifyOTP(svcs.Auth, logg))
	})

	// Catalog browsing is open; everything that acts on behalf of a user
	// requires a token.
	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", controllers.BookList(svcs.Books, logg))
		r.Get("/search", controllers.BookSearch(svcs.Books, logg))
		r.Get("/recent", controllers.BooksRecent(svcs.Books, logg))
		r.Get("/type/{listingType}", controllers.BooksByType(svcs.Books, logg))
		r.Get("/user/{userId}", controllers.BooksByUser(svcs.Books, logg))
		r.Get("/{bookId}", controllers.BookDetail(svcs.Books, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/", controllers.BookCreate(svcs.Books, logg))
			r.Put("/{bookId}", controllers.BookUpdate(svcs.Books, logg))
			r.Delete("/{bookId}", controllers.BookDelete(svcs.Books, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(svcs.Cart, logg))
			r.Post("/", controllers.CartAdd(svcs.Cart, logg))
			r.Delete("/{bookId}", controllers.CartRemove(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(svcs.Wishlist, logg))
			r.Get("/{bookId}", controllers.WishlistContains(svcs.Wishlist, logg))
			r.Delete("/{bookId}", controllers.WishlistRemove(svcs.Wishlist, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.TransactionCreate(svcs.Transactions, logg))
			r.Get("/purchases", controllers.TransactionsPurchases(svcs.Transactions, logg))
			r.Get("/sales", controllers.TransactionsSales(svcs.Transactions, logg))
			r.Get("/{transactionId}", controllers.TransactionDetail(svcs.Transactions, logg))
			r.Post("/{transactionId}/complete", controllers.TransactionComplete(svcs.Transactions, logg))
			r.Post("/{transactionId}/cancel", controllers.TransactionCancel(svcs.Transactions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/buy-now", controllers.OrderBuyNow(svcs.Orders, logg))
			r.Get("/purchases", controllers.OrdersPurchases(svcs.Orders, logg))
			r.Get("/sales", controllers.OrdersSales(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
			r.Post("/{orderId}/delivered", controllers.OrderMarkDelivered(svcs.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})
	})

	return r
}
