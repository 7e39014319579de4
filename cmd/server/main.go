package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ecoscan/backend/config"
	httpDelivery "github.com/ecoscan/backend/internal/delivery/http"
	"github.com/ecoscan/backend/internal/domain"
	"github.com/ecoscan/backend/internal/infrastructure/carbon"
	"github.com/ecoscan/backend/internal/infrastructure/openfoodfacts"
	"github.com/ecoscan/backend/internal/infrastructure/store"
	"github.com/ecoscan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting EcoScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store: %s (TTL %s)", cfg.Store.Type, cfg.Store.TTL)

	// Initialize the product store
	var productStore domain.ProductStore
	switch cfg.Store.Type {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoStore, err := store.NewMongoStore(ctx, cfg.Store.URI, cfg.Store.Database, cfg.Store.Collection, cfg.Store.TTL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB store: %v", err)
		}
		defer mongoStore.Close(context.Background())
		log.Printf("MongoDB store ready: %s/%s (TTL index on fetched_at)", cfg.Store.Database, cfg.Store.Collection)
		productStore = mongoStore
	case "memory":
		productStore = store.NewMemoryStore(cfg.Store.TTL, cfg.Store.ReapInterval)
		log.Printf("In-memory store ready (reap interval %s)", cfg.Store.ReapInterval)
	}

	// One pooled client per external dependency, held for the process lifetime
	estimator := carbon.NewClient(cfg.Carbon.APIURL, cfg.Carbon.APIKey, cfg.Carbon.Timeout)
	if cfg.Carbon.APIKey == "" {
		log.Printf("WARNING: carbon API key not configured - carbon estimates will be absent")
	}

	fetcher := openfoodfacts.NewClient(
		cfg.OpenFoodFacts.BaseURL,
		cfg.OpenFoodFacts.Timeout,
		cfg.OpenFoodFacts.RateLimit,
		cfg.OpenFoodFacts.RateBurst,
		estimator,
	)
	log.Printf("OpenFoodFacts client ready: %s", cfg.OpenFoodFacts.BaseURL)

	// Initialize usecase layer
	productService := usecase.NewProductService(productStore, fetcher)
	batchResolver := usecase.NewBatchResolver(productStore, fetcher, cfg.Batch.MaxConcurrentFetches)
	log.Printf("Batch resolver: max %d concurrent fetches", cfg.Batch.MaxConcurrentFetches)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(productService, batchResolver)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
