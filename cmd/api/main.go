package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/campuslink/campuslink-backend/api/routes"
	"github.com/campuslink/campuslink-backend/internal/auth"
	"github.com/campuslink/campuslink-backend/internal/books"
	"github.com/campuslink/campuslink-backend/internal/cart"
	"github.com/campuslink/campuslink-backend/internal/notifications"
	"github.com/campuslink/campuslink-backend/internal/orders"
	"github.com/campuslink/campuslink-backend/internal/otp"
	"github.com/campuslink/campuslink-backend/internal/transactions"
	"github.com/campuslink/campuslink-backend/internal/users"
	"github.com/campuslink/campuslink-backend/internal/wishlist"
	"github.com/campuslink/campuslink-backend/pkg/config"
	"github.com/campuslink/campuslink-backend/pkg/db"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/campuslink/campuslink-backend/pkg/metrics"
	"github.com/campuslink/campuslink-backend/pkg/migrate"
	"github.com/campuslink/campuslink-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, promRegistry, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	notificationsRepo := notifications.NewRepository(gormDB)
	notificationsSvc, err := notifications.NewService(notificationsRepo, redisClient)
	if err != nil {
		return routes.Services{}, err
	}

	wishlistRepo := wishlist.NewRepository(gormDB)
	wishlistNotifier, err := wishlist.NewNotifier(wishlistRepo, notificationsSvc, logg)
	if err != nil {
		return routes.Services{}, err
	}

	booksRepo := books.NewRepository(gormDB)
	booksSvc, err := books.NewService(booksRepo, wishlistNotifier, logg)
	if err != nil {
		return routes.Services{}, err
	}

	wishlistSvc, err := wishlist.NewService(wishlistRepo, booksRepo)
	if err != nil {
		return routes.Services{}, err
	}

	cartRepo := cart.NewRepository(gormDB)
	cartSvc, err := cart.NewService(cartRepo, booksRepo)
	if err != nil {
		return routes.Services{}, err
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersSvc, err := orders.NewService(dbClient, ordersRepo, booksRepo, cartRepo, notificationsSvc, wishlistNotifier, logg)
	if err != nil {
		return routes.Services{}, err
	}

	transactionsRepo := transactions.NewRepository(gormDB)
	transactionsSvc, err := transactions.NewService(dbClient, transactionsRepo, cartRepo, booksRepo, ordersSvc, wishlistNotifier, logg)
	if err != nil {
		return routes.Services{}, err
	}

	otpStore, err := otp.NewStore(redisClient, cfg.OTP)
	if err != nil {
		return routes.Services{}, err
	}

	authSvc, err := auth.NewService(users.NewRepository(gormDB), otpStore, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:          authSvc,
		Books:         booksSvc,
		Cart:          cartSvc,
		Wishlist:      wishlistSvc,
		Transactions:  transactionsSvc,
		Orders:        ordersSvc,
		Notifications: notificationsSvc,
	}, nil
}
