package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/jewel-storefront/internal/config"
	"github.com/example/jewel-storefront/internal/infrastructure/kafka"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/example/jewel-storefront/internal/metrics"
	"github.com/example/jewel-storefront/internal/projection"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[Projector] KAFKA_BROKERS is required")
	}

	log.Println("[Projector] ========================================")
	log.Println("[Projector] Jewel Storefront - Catalog Projector")
	log.Println("[Projector] ========================================")
	log.Printf("[Projector] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[Projector] Topic: %s", cfg.KafkaTopic)
	log.Printf("[Projector] Group: %s", cfg.KafkaGroupID)

	cfg.OTELServiceName += "-projector"
	appMetrics, shutdownMetrics, err := metrics.Init(ctx, cfg)
	if err != nil {
		log.Fatalf("[Projector] Failed to initialize metrics: %v", err)
	}
	defer shutdownMetrics(context.Background())

	db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Projector] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("[Projector] Failed to migrate: %v", err)
	}
	log.Println("[Projector] Connected to PostgreSQL (read store)")

	projector := projection.NewProjector(store.NewPostgresCatalogStore(db), appMetrics)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("[Projector] Starting event consumer...")
		if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Projector] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	log.Println("[Projector] Shutting down...")
	cancel()
	<-done
}
