package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start serves HTTP on the configured address. The returned channel is closed
// once a termination signal arrives; the caller then runs Stop.
func (a *App) Start() <-chan struct{} {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to listen http server", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	go func() {
		if err := <-a.Serve(l); err != nil {
			slog.Error("failed to serve http server", "error", err)
			os.Exit(1)
		}
	}()

	done := make(chan struct{})
	go func() {
		ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		<-ctx.Done()
		slog.Info("termination signal received, shutting down")
		close(done)
	}()

	return done
}

// Serve runs the HTTP server on l. The channel yields nil after a clean
// Shutdown.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("http server listening", "address", l.Addr().String())

		err := a.httpServer.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
		close(errChan)
	}()

	return errChan
}

// Stop drains HTTP traffic, cancels consumers, waits for in-flight work and
// then releases resources in order.
func (a *App) Stop(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	a.cancel()

	slog.InfoContext(ctx, "waiting for all goroutine to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
