package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/config"
	"github.com/microshop/microshop/internal/discovery"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/handlers"
	"github.com/microshop/microshop/internal/orders"
	"github.com/microshop/microshop/internal/router"
	"github.com/microshop/microshop/internal/store"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
	servicePort = 8082
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := store.NewPostgresDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

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
		Tags: []string{"api", "orders"},
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

	orderStore := store.NewPostgresOrders(database)
	orderService := orders.NewService(orderStore, mq)

	// The inventory reconciler answers on product_events; consume it to
	// advance order status.
	rt := router.New(serviceName)
	rt.Register(event.KindInventoryUpdated, orderService.HandleInventoryUpdated)
	rt.Register(event.KindInventoryRejected, orderService.HandleInventoryRejected)
	if err := mq.Consume(ctx, event.QueueProductEvents, rt.Handle); err != nil {
		log.Fatalf("Failed to consume %s: %v", event.QueueProductEvents, err)
	}

	orderHandler := handlers.NewOrderHandler(orderService)

	// Setup router
	engine := gin.Default()

	engine.GET("/health", orderHandler.HealthCheck)
	engine.GET("/orders", orderHandler.ListOrders)
	engine.GET("/orders/:id", orderHandler.GetOrder)
	engine.POST("/orders", orderHandler.PlaceOrder)
	engine.POST("/orders/:id/ship", orderHandler.ShipOrder)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, servicePort)
	engine.Run(":8082")
}
