package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// BackgroundWork is work that outlives the request that started it
type BackgroundWork interface {
	Wait(ctx context.Context) error
}

// App owns the HTTP server and everything that must be released with it
type App struct {
	server          *http.Server
	db              *pgxpool.Pool
	background      []BackgroundWork
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down
func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			a.logger.Error("Server error", zap.Error(err))
		}
		a.closeDB()
		return err
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	return a.shutdown()
}

// shutdown stops accepting requests, lets in-flight ones and async uploads
// finish within shutdownTimeout, then closes the pool they write to.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	defer a.closeDB()

	a.logger.Info("Shutting down server gracefully", zap.Duration("timeout", a.shutdownTimeout))

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	for _, bg := range a.background {
		if err := bg.Wait(ctx); err != nil {
			a.logger.Warn("Background uploads still running at shutdown", zap.Error(err))
			return err
		}
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}

func (a *App) closeDB() {
	if a.db != nil {
		a.logger.Info("Closing database connections")
		a.db.Close()
	}
}
