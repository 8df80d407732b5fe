package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sellora/storefront/internal/analytics"
	api "github.com/sellora/storefront/internal/api/http"
	"github.com/sellora/storefront/internal/backend"
	"github.com/sellora/storefront/internal/cart"
	"github.com/sellora/storefront/internal/catalog"
	"github.com/sellora/storefront/internal/config"
	"github.com/sellora/storefront/internal/guard"
	"github.com/sellora/storefront/internal/identity"
	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/order"
	"github.com/sellora/storefront/internal/session"
	"github.com/sellora/storefront/internal/storage/badgerkv"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	kv, err := badgerkv.Open(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal("failed to open local storage", "error", err)
	}
	defer kv.Close()

	identityClient := identity.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, kv, logger.Component("identity"))
	sessions := session.New(ctx, identityClient, logger.Component("session"))

	signalsClient := analytics.NewClient(cfg.Signals.URL)
	bridge := analytics.NewBridge(signalsClient, cfg.Signals.AuthKey, cfg.Signals.CartID, sessions.Email, logger.Component("analytics"))

	// Arm the bridge at startup; a failure here only disables tracking.
	go func() {
		if err := bridge.Arm(ctx); err != nil {
			logger.Error("failed to arm analytics bridge", "error", err)
		}
	}()

	cartStore := cart.New(kv, bridge, cfg.Storage.CartKey, logger.Component("cart"),
		cart.WithTrackTimeout(cfg.Signals.TrackTimeout))

	records := backend.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, sessions)
	catalogService := catalog.New(records)
	orderService := order.New(records, sessions, logger.Component("order"))

	handler := api.NewHandler(sessions, cartStore, catalogService, orderService, logger)
	router := api.NewRouter(handler, guard.New(sessions), logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", server.Addr)
	}

	cartStore.Close()
	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
