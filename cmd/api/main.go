// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tilapia-hub-api-server/config"
	"tilapia-hub-api-server/internal/api/handlers"
	"tilapia-hub-api-server/internal/api/routes"
	"tilapia-hub-api-server/internal/auth"
	"tilapia-hub-api-server/internal/database"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/s3"
	"tilapia-hub-api-server/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// storeBackend is satisfied by both the MongoDB and the in-memory store.
type storeBackend interface {
	ledger.Store
	ledger.ProfileStore
	database.SeedTarget
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load .env (optional) and configuration
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Could not load .env file: %v", err)
	}
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// 2. Tracing
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}()

	// 3. Persistent store: MongoDB, or in-memory when mongo.uri is "memory://"
	var store storeBackend
	if strings.HasPrefix(cfg.Mongo.URI, "memory://") {
		log.Println("Using in-memory store. Data is lost on restart.")
		store = ledger.NewMemoryStore()
	} else {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = client.Ping(pingCtx, nil)
		cancel()
		if err != nil {
			log.Fatalf("Failed to ping MongoDB: %v", err)
		}
		log.Println("Connected to MongoDB!")

		if !cfg.Mongo.UseTransactions {
			log.Println("WARNING: MongoDB transactions disabled. Order writes use compensating updates (best-effort).")
		}
		mongoStore := database.NewMongoStore(client.Database(cfg.Mongo.DBName), cfg.Mongo.UseTransactions)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		store = mongoStore
	}

	// 4. Seed demo marketplace
	if cfg.Seed.Enabled {
		if err := database.SeedDemoMarketplace(ctx, store); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	// 5. Redis sessions
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 6. Ledger and identity provider
	tokens, err := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL())
	if err != nil {
		log.Fatalf("Invalid JWT config: %v", err)
	}
	identity := auth.NewService(store, auth.NewRedisSessionStore(redisClient), tokens)
	ledgerSvc := ledger.New(store)

	// 7. S3 photo uploads (optional)
	var photos handlers.PhotoUploader
	if cfg.S3.Enabled() {
		uploader, err := s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatalf("Failed to create S3 uploader: %v", err)
		}
		photos = uploader
	} else {
		log.Println("S3 not configured. Listing photo uploads are disabled.")
	}

	// 8. Router
	router := routes.SetupRouter(cfg, ledgerSvc, identity, photos)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           otelhttp.NewHandler(router, "tilapia-hub-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 9. Start server
	go func() {
		log.Printf("Starting API server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
