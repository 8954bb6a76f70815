package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shopify/sarama"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"order-reconciliation/internal/client"
	"order-reconciliation/internal/config"
	"order-reconciliation/internal/logger"
	"order-reconciliation/internal/repository"
	"order-reconciliation/internal/server"
	"order-reconciliation/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	serve := serveCommand()
	rootCmd := &cobra.Command{
		Use:           "api",
		Short:         "order reconciliation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	rootCmd.AddCommand(
		serve,
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return run(cfg, log)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := client.InitDatabase(cfg.Database, log)
			if err != nil {
				return err
			}
			if err := client.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema migrated")
			return nil
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log.With(zap.String("env", cfg.Environment.Name)), nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	db, err := client.InitDatabase(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := client.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return err
	}
	bankLoc, err := cfg.Webhook.Location()
	if err != nil {
		return err
	}

	publisher := service.NewNoopPublisher()
	var producer sarama.SyncProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = client.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		publisher = service.NewKafkaPublisher(producer, cfg.Kafka.OrderTopic)
		log.Info("publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrderTopic))
	}

	paymentRepo := repository.NewPendingPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	cancelOrderRepo := repository.NewCancelOrderRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)

	srv := server.NewServer(cfg, log, server.Services{
		Payment: service.NewPaymentService(db, paymentRepo, webhookEventRepo, publisher, service.PaymentOptions{
			Location: bankLoc,
		}),
		Order: service.NewOrderService(db, paymentRepo, orderRepo, inventoryRepo, publisher, service.OrderOptions{
			DecrementInventory: cfg.Inventory.DecrementOnOrder,
			Location:           loc,
		}),
		Cancellation: service.NewCancellationService(db, orderRepo, cancelOrderRepo, inventoryRepo, publisher, service.CancellationOptions{
			RestockInventory: cfg.Inventory.RestockOnApproval,
		}),
		Analytics: service.NewAnalyticsService(orderRepo, loc),
	})

	serverAddr := cfg.Address()
	log.Info("starting HTTP server", zap.String("address", serverAddr))

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		log.Info("signal received, starting graceful shutdown", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("HTTP server error", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn("close kafka producer", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("shutdown complete")
	return nil
}
