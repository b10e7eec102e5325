package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/jewel-storefront/internal/api"
	"github.com/example/jewel-storefront/internal/auth"
	"github.com/example/jewel-storefront/internal/command"
	"github.com/example/jewel-storefront/internal/config"
	"github.com/example/jewel-storefront/internal/domain/product"
	"github.com/example/jewel-storefront/internal/infrastructure/kafka"
	"github.com/example/jewel-storefront/internal/infrastructure/objectstore"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/example/jewel-storefront/internal/metrics"
	"github.com/example/jewel-storefront/internal/projection"
	"github.com/example/jewel-storefront/internal/query"
	"github.com/google/uuid"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[API] %v", err)
	}
	if err := auth.ValidatePasswordHash(cfg.AdminPasswordHash); err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Jewel Storefront - Catalog Service")
	log.Println("[API] ========================================")
	log.Printf("[API] Event store: %s", cfg.EventStore)

	appMetrics, shutdownMetrics, err := metrics.Init(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] Failed to initialize metrics: %v", err)
	}
	defer shutdownMetrics(context.Background())

	eventStore, catalogStore, db, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] Failed to open stores: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	projector := projection.NewProjector(catalogStore, appMetrics)

	// Rebuild the read model before serving
	log.Println("[API] Replaying events into the read store...")
	if _, err := projector.Replay(ctx, eventStore); err != nil {
		log.Fatalf("[API] Replay failed: %v", err)
	}

	var (
		publisher command.Publisher
		wg        sync.WaitGroup
	)
	if len(cfg.KafkaBrokers) > 0 {
		log.Printf("[API] Kafka: %v (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer

		group := cfg.APIConsumerGroup(uuid.NewString())
		log.Printf("[API] Consumer group: %s", group)
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, group)
		defer consumer.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Println("[API] Starting Kafka consumer (async projection)...")
			if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
				log.Printf("[API] Projector error: %v", err)
			}
		}()
	} else {
		log.Println("[API] No Kafka brokers configured, projecting inline")
		publisher = projection.NewInlinePublisher(projector)
	}

	cmdHandler := command.NewHandler(product.NewService(eventStore), publisher, appMetrics)
	queryHandler := query.NewHandler(catalogStore)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authenticator := auth.NewAuthenticator(cfg.AdminEmail, cfg.AdminPasswordHash, tokens)

	var images api.ImageStore
	if cfg.ObjectStorageEnabled() {
		objects, presigner, err := objectstore.NewS3Clients(ctx, objectstore.S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("[API] Failed to create S3 client: %v", err)
		}
		images = objectstore.NewStore(objects, presigner, cfg.S3Bucket, cfg.S3PublicURL)
		log.Printf("[API] Object storage: bucket %s", cfg.S3Bucket)
	} else {
		log.Println("[API] Object storage not configured, uploads disabled")
	}
	proxy := objectstore.NewProxy(nil, cfg.S3PublicURL)

	router := api.NewRouter(api.RouterDeps{
		Handlers: api.NewHandlers(cmdHandler, queryHandler),
		Auth:     api.NewAuthHandlers(authenticator, cfg.CookieSecure),
		Uploads:  api.NewUploadHandlers(images, proxy, appMetrics),
		Verifier: authenticator,
		Metrics:  appMetrics,
		WebDir:   cfg.WebDir,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.ListenAddr())
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel() // Cancel context to stop consumer

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}

	wg.Wait()
}

// openStores picks the event store named by cfg. The Postgres store keeps the
// read model in Postgres too; the others keep it in memory and rely on replay.
func openStores(ctx context.Context, cfg *config.Config) (store.EventStore, store.CatalogStore, *sql.DB, error) {
	switch cfg.EventStore {
	case config.EventStorePostgres:
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		log.Println("[API] Connected to PostgreSQL")
		return store.NewPostgresEventStore(db), store.NewPostgresCatalogStore(db), db, nil

	case config.EventStoreDynamoDB:
		client, err := store.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("[API] Using DynamoDB tables %s, %s", cfg.DynamoEventsTable, cfg.DynamoSnapshotTable)
		es := store.NewDynamoEventStore(client, cfg.DynamoEventsTable, cfg.DynamoSnapshotTable)
		return es, store.NewMemoryCatalogStore(), nil, nil

	default:
		log.Println("[API] Using in-memory event store (data is lost on restart)")
		return store.NewMemoryEventStore(), store.NewMemoryCatalogStore(), nil, nil
	}
}
