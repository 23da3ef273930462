package main

import (
	"net"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		applog.New(applog.Config{}).Warn("Failed to read .env file", applog.FieldError, err)
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	var opts []services.Option

	caches := cache.NewManager()
	if cfg.LedgerCacheSize > 0 {
		ledgerCache := cache.NewLedgerCache(cfg.LedgerCacheSize, cfg.LedgerCacheTTL)
		caches.Register(ledgerCache)
		caches.StartCleanup(cfg.LedgerCacheTTL)
		opts = append(opts, services.WithCache(ledgerCache))
	}
	defer caches.Stop()

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(result.Store, opts...)
	expenses := services.NewExpenseService(result.Store, opts...)
	srv := apphttp.NewServer(":"+cfg.Port, ledger, expenses, result.Store, logger)

	logger.Info("Starting budget server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"cache_size", cfg.LedgerCacheSize,
		"events", cfg.AMQPURL != "")

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Error("Failed to listen", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	start := time.Now()
	if err := srv.Run(ctx, ln, cfg.ShutdownTimeout); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully", "uptime", time.Since(start).Round(time.Second).String())
}
