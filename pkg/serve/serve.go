// Package serve runs HTTP servers for the lifetime of a context.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown once the context is
	// done.
	DefaultShutdownTimeout = 5 * time.Second
)

// NewServer returns an [*http.Server] serving handler at addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: handler,

		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}
}

// ListenAndServe runs server until it fails or ctx is done. In the latter
// case in-flight requests get up to timeout to complete.
func ListenAndServe(ctx context.Context, server *http.Server, timeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}

		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown %s: %w", server.Addr, err)
		}

		return nil
	}
}
