package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/config"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/handlers"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/logger"
	"github.com/kathytingcheng-oss/crypto-quant-os/src/security"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	port string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API and the background price refresh" }
func (*serveCmd) Usage() string {
	return `serve [-port <port>]

  Starts the price cache refresh loop and the HTTP API. Stops gracefully on
  SIGINT or SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "", "Port to listen on (defaults to PORT)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		return subcommands.ExitFailure
	}
	port := c.port
	if port == "" {
		port = config.Cfg.Port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L.Info("Initializing price cache...", "source", config.Cfg.PriceSource, "interval", config.Cfg.PriceRefreshInterval)
	prices, err := newPriceCache()
	if err != nil {
		logger.L.Error("Failed to create price source", "error", err)
		return subcommands.ExitFailure
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	portfolio := newPortfolio(prices)

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		prices.Run(ctx)
	}()

	router := handlers.NewRouter(security.NewAuthService(config.Cfg.JWTSecret), prices, portfolio, handlers.RouterConfig{
		AllowedOrigins:     config.Cfg.AllowedOrigins,
		RateLimitRPS:       config.Cfg.RateLimitRPS,
		RateLimitBurst:     config.Cfg.RateLimitBurst,
		MaxUploadSizeBytes: config.Cfg.MaxUploadSizeBytes,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.L.Info("Server starting", "address", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	status := subcommands.ExitSuccess
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("Failed to start server", "error", err)
			status = subcommands.ExitFailure
		}
		stop()
	case <-ctx.Done():
		logger.L.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Server shutdown failed", "error", err)
			status = subcommands.ExitFailure
		}
	}

	<-refreshDone
	logger.L.Info("Server stopped gracefully.")
	return status
}
