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
	"github.com/microshop/microshop/internal/router"
	"github.com/microshop/microshop/internal/store"
	"github.com/microshop/microshop/internal/users"
)

const (
	serviceName = "user-service"
	serviceID   = "user-service-1"
	servicePort = 8083
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

	if err := mq.DeclareQueue(event.QueueUserEvents); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
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
		Tags: []string{"api", "users"},
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

	userStore := store.NewPostgresUsers(database)
	userService := users.NewService(userStore, mq)

	rt := router.New(serviceName)
	rt.Register(event.KindUserRegistered, userService.HandleUserRegistered)
	rt.Register(event.KindUserProfileUpdated, userService.HandleUserProfileUpdated)
	if err := mq.Consume(ctx, event.QueueUserEvents, rt.Handle); err != nil {
		log.Fatalf("Failed to consume %s: %v", event.QueueUserEvents, err)
	}

	userHandler := handlers.NewUserHandler(userService)

	// Setup router
	engine := gin.Default()

	engine.GET("/health", userHandler.HealthCheck)
	engine.POST("/register", userHandler.Register)
	engine.PUT("/profile/:id", userHandler.UpdateProfile)

	// Start server
	log.Printf("🚀 %s starting on http://localhost:%d", serviceName, servicePort)
	engine.Run(":8083")
}
