package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batchgen/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// New creates the echo instance with recovery, request IDs and request logging.
func New(log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

// Run serves e on addr until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully. ready is called once the listener is up.
func Run(ctx context.Context, e *echo.Echo, addr string, log *logger.Logger, ready func(url string)) error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("batchgen starting", "addr", addr)
		serverErrors <- e.Start(addr)
	}()

	if ready != nil {
		go func() {
			if err := waitListening(ctx, e); err != nil {
				return
			}
			ready("http://" + e.ListenerAddr().String())
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		if err := e.Close(); err != nil {
			return fmt.Errorf("could not stop server: %w", err)
		}
	}
	log.Info("shutdown complete")
	return nil
}

func waitListening(ctx context.Context, e *echo.Echo) error {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for e.ListenerAddr() == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
