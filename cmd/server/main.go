package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/everpay/dashboard-haven-connect-sub000/internal/api"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/config"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/events"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/ledger"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/orchestrator"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/processor"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/recipient"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/region"
	"github.com/everpay/dashboard-haven-connect-sub000/internal/telemetry"
)

func main() {
	// Initialize telemetry
	if err := telemetry.InitTelemetry("payout-service"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Payout Service")

	cfg := config.Load()

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	transactionLedger := ledger.NewPostgresLedger(db)
	if err := transactionLedger.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Connect to Kafka
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	processors := map[string]processor.Client{
		region.ProcessorItsPaid:  processor.NewItsPaidClient(cfg.ItsPaidBaseURL, cfg.ItsPaidAPIKey, nil),
		region.ProcessorPrometeo: processor.NewPrometeoClient(cfg.PrometeoBaseURL, cfg.PrometeoAPIKey, nil),
	}

	registry := recipient.NewNATSRegistry(nc)
	orch := orchestrator.New(processors, transactionLedger, registry, publisher, telemetry.Logger)

	r := api.NewRouter(orch, transactionLedger, redisClient, telemetry.Logger)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Payout Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight recipient upserts drain
	orch.Close()

	telemetry.Logger.Info("Server exited")
}
