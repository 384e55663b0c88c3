package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/cache"
	"github.com/microshop/microshop/internal/catalog"
	"github.com/microshop/microshop/internal/config"
	"github.com/microshop/microshop/internal/discovery"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/handlers"
	"github.com/microshop/microshop/internal/inventory"
	"github.com/microshop/microshop/internal/router"
	"github.com/microshop/microshop/internal/store"
)

const (
	serviceName = "product-service"
	serviceID   = "product-service-1"
	servicePort = 8081
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := store.NewPostgresDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Connect to Redis
	redisCache, err := cache.NewRedisCache(cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// Connect to RabbitMQ
	mq, err := broker.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword, cfg.BrokerAttempts, cfg.BrokerDelay)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mq.Close()

	for _, queue := range []string{event.QueueOrderEvents, event.QueueProductEvents} {
		if err := mq.DeclareQueue(queue); err != nil {
			log.Fatalf("Failed to declare queue: %v", err)
		}
	}

	// Register with Consul
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Fatalf("Failed to connect to Consul: %v", err)
	}
	err = consul.Register(discovery.ServiceConfig{
		Name: serviceName,
		ID:   serviceID,
		Port: servicePort,
		Tags: []string{"api", "products"},
	})
	if err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Deregister on shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
		consul.Deregister(serviceID)
		os.Exit(0)
	}()

	// Inventory writes go through the cached store so readers never see
	// stale stock after a deduction.
	productStore := store.NewCachedProducts(store.NewPostgresProducts(database), redisCache)
	catalogService := catalog.NewService(productStore, mq)
	reconciler := inventory.NewReconciler(productStore, mq)

	rt := router.New(serviceName)
	rt.Register(event.KindOrderPlaced, reconciler.HandleOrderPlaced)
	if err := mq.Consume(ctx, event.QueueOrderEvents, rt.Handle); err != nil {
		log.Fatalf("Failed to consume %s: %v", event.QueueOrderEvents, err)
	}

	productHandler := handlers.NewProductHandler(catalogService)

	// Setup router
	engine := gin.Default()

	engine.GET("/health", productHandler.HealthCheck)
	engine.GET("/products", productHandler.ListProducts)
	engine.GET("/products/:id", productHandler.GetProduct)
	engine.POST("/products", productHandler.CreateProduct)
	engine.PUT("/products/:id", productHandler.UpdateProduct)
	engine.PUT("/products/:id/inventory", productHandler.AdjustInventory)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, servicePort)
	engine.Run(":8081")
}
