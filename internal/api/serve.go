package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"shortsmith/internal/logging"
	"shortsmith/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Run serves handler on bind until ctx is canceled. The lock file prevents a
// second server from sharing the same data directory.
func Run(ctx context.Context, bind, lockPath string, handler http.Handler, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "api")
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "serve", "bind address is empty", nil)
	}

	if lockPath != "" {
		if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "api", "serve", "create lock directory", err)
		}
		lock := flock.New(lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "api", "serve", "acquire server lock", err)
		}
		if !locked {
			return services.Wrap(services.ErrConfiguration, "api", "serve",
				fmt.Sprintf("another server holds %s", lockPath), nil)
		}
		defer func() { _ = lock.Unlock() }()
	}

	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "api", "listen", bind, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generate holds the connection for the whole download and encode.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return services.Wrap(services.ErrProcessing, "api", "serve", "server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown incomplete",
			logging.Error(err),
			logging.String(logging.FieldEventType, "api_shutdown_incomplete"),
			logging.String(logging.FieldErrorHint, "in-flight requests were interrupted"),
		)
	}
	logger.Info("api server stopped", logging.String(logging.FieldEventType, "api_stopped"))
	return nil
}
