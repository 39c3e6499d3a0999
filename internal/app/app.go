// Package app provides application lifecycle management for the relay service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/feedrelay/internal/config"
)

// FeedRelayApp encapsulates all components needed to run the relay:
// the chat transport, the background sync coordinator and the health server.
type FeedRelayApp struct {
	config          *config.Config
	components      *AppComponents
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// Start opens the chat transport, then runs the sync coordinator and the
// HTTP server until ctx is cancelled or one of them fails. The coordinator is
// started exactly once, after the transport session is open.
//
// A coordinator that gives up after exhausting its attempts makes Start
// return the error, so the process exits and its supervisor restarts it.
func (app *FeedRelayApp) Start(ctx context.Context) error {
	if err := app.components.Transport.Open(ctx); err != nil {
		return fmt.Errorf("failed to open chat transport: %w", err)
	}
	defer func() {
		if err := app.components.Transport.Close(); err != nil {
			slog.Warn("Failed to close chat transport", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.components.SyncCoordinator.Start(gctx)
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		if err := app.components.SyncCoordinator.Stop(); err != nil {
			slog.Error("Failed to stop sync coordinator", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		slog.Info("Server shutdown complete")
		return nil
	})

	return g.Wait()
}

// Close releases the storage resources. Call it once Start has returned.
func (app *FeedRelayApp) Close() {
	if app.components.StorageFactory != nil {
		app.components.StorageFactory.Cleanup()
	}
}

// GetConfig returns the application configuration
func (app *FeedRelayApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *FeedRelayApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
