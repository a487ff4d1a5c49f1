package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerOptions configures Serve.
type ServerOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger

	// Ready, if set, receives the bound address once the listener is open.
	// The send is abandoned when ctx is cancelled first.
	Ready chan<- string
}

// Serve runs handler until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, handler http.Handler, opts ServerOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("http server started", "addr", addr)
	if opts.Ready != nil {
		select {
		case opts.Ready <- addr:
		case <-ctx.Done():
		}
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
