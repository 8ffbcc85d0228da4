package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/clickmarket/clickmarket-backend/api/routes"
	"github.com/clickmarket/clickmarket-backend/internal/cart"
	"github.com/clickmarket/clickmarket-backend/internal/favorites"
	"github.com/clickmarket/clickmarket-backend/internal/orders"
	"github.com/clickmarket/clickmarket-backend/internal/products"
	"github.com/clickmarket/clickmarket-backend/internal/users"
	"github.com/clickmarket/clickmarket-backend/internal/zones"
	"github.com/clickmarket/clickmarket-backend/pkg/config"
	"github.com/clickmarket/clickmarket-backend/pkg/db"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
	"github.com/clickmarket/clickmarket-backend/pkg/migrate"
	"github.com/clickmarket/clickmarket-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Append(dbClient.Close(), redisClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	gormDB := dbClient.DB()
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	zoneRepo := zones.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	favoriteRepo := favorites.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	productService, err := products.NewService(productRepo)
	exitOnErr(logg, "failed to create products service", err)
	cartService, err := cart.NewService(cartRepo, productRepo, dbClient)
	exitOnErr(logg, "failed to create cart service", err)
	zoneService, err := zones.NewService(zoneRepo)
	exitOnErr(logg, "failed to create zones service", err)
	userService, err := users.NewService(userRepo)
	exitOnErr(logg, "failed to create users service", err)
	favoriteService, err := favorites.NewService(favoriteRepo, productRepo)
	exitOnErr(logg, "failed to create favorites service", err)
	orderService, err := orders.NewService(orderRepo, cartRepo, zoneRepo, dbClient)
	exitOnErr(logg, "failed to create orders service", err)

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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Cart:      cartService,
			Orders:    orderService,
			Products:  productService,
			Zones:     zoneService,
			Favorites: favoriteService,
			Users:     userService,
		}),
	}

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-signalCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
