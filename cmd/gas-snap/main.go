package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"github.com/celo-org/gas-snap/internal/api"
	"github.com/celo-org/gas-snap/internal/chain"
	"github.com/celo-org/gas-snap/internal/config"
	"github.com/celo-org/gas-snap/internal/dialog"
	"github.com/celo-org/gas-snap/internal/pkg/utils"
	"github.com/celo-org/gas-snap/internal/registry"
	"github.com/celo-org/gas-snap/internal/service"
	"github.com/celo-org/gas-snap/internal/signer"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// Route slog users through zap so everything lands in one stream.
	slogHandler := zapslog.NewHandler(zapLogger.Core())
	slog.SetDefault(slog.New(slogHandler))

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	networkProvider := registry.NewProvider(cfg.Networks)
	network, err := networkProvider.Lookup(cfg.ChainID)
	if err != nil {
		log.Fatalf("Failed to resolve configured network: %v", err)
	}
	zapLogger.Info("Network selected",
		zap.String("network", network.Identifier),
		zap.String("rpcUrl", network.RPCURL))

	chainClient, err := chain.NewClient(network, cfg.RpcClient, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize chain client: %v", err)
	}

	txSigner, err := signer.NewSigner(cfg.Signer.Accounts, zapLogger)
	if err != nil {
		log.Fatalf("Failed to initialize signer: %v", err)
	}

	dialogTimeout := time.Duration(cfg.Dialog.RequestTimeoutMillis) * time.Millisecond
	dialogClient := dialog.NewHTTPClient(cfg.Dialog.BaseURL, dialogTimeout, zapLogger)
	zapLogger.Info("Dialog client initialized", zap.String("baseUrl", cfg.Dialog.BaseURL))

	resolver := service.NewFeeCurrencyResolver(chainClient, cfg, zapLogger)
	txService := service.NewTransactionService(chainClient, resolver, txSigner, dialogClient, cfg, zapLogger)
	zapLogger.Info("TransactionService initialized")

	handler := api.NewTransactionHandler(txService, zapLogger)
	router := api.SetupRouter(handler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited")
}
