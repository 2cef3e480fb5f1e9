package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/app"
	"go.uber.org/zap"
)

// @title                       Resilient Ledger API
// @version                     1.0
// @description                 Single-writer ledger engine: serialized transactions, interest accrual and shared account access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	pkg.InitLogger()
	logger := pkg.Logger
	defer func() { _ = logger.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	srv, cleanup, err := app.NewApp(ctx, logger)
	if err != nil {
		logger.Fatal("failed_to_initialize_app", zap.Error(err))
	}

	go func() {
		logger.Info("ledger_api_started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server_error", zap.Error(err))
		}
	}()

	// Handle shutdown signals (SIGINT, SIGTERM) for a K8s pod termination grace period
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", zap.Error(err))
	}
	// Queued transactions still drain inside cleanup before the pools close.
	cleanup()
	stop()
	logger.Info("ledger_api_stopped")
}
