// Package config provides runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string
	// BrokerAttempts bounds the initial connect retry loop; 0 retries
	// forever. Reconnects after a mid-session loss always retry forever.
	BrokerAttempts int
	BrokerDelay    time.Duration

	RedisHost string
	RedisPort int
	CacheTTL  time.Duration

	ConsulHost string
	ConsulPort int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load collects configuration from environment with defaults that match
// local development.
func Load() Config {
	return Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     atoienv("DB_PORT", 5432),
		DBUser:     getenv("DB_USER", "microshop"),
		DBPassword: getenv("DB_PASSWORD", "microshop123"),
		DBName:     getenv("DB_NAME", "microshop"),

		RabbitHost:     getenv("RABBITMQ_HOST", "localhost"),
		RabbitPort:     atoienv("RABBITMQ_PORT", 5672),
		RabbitUser:     getenv("RABBITMQ_USER", "guest"),
		RabbitPassword: getenv("RABBITMQ_PASSWORD", "guest"),
		BrokerAttempts: atoienv("BROKER_CONNECT_ATTEMPTS", 5),
		BrokerDelay:    time.Duration(atoienv("BROKER_CONNECT_DELAY_SEC", 5)) * time.Second,

		RedisHost: getenv("REDIS_HOST", "localhost"),
		RedisPort: atoienv("REDIS_PORT", 6379),
		CacheTTL:  time.Duration(atoienv("CACHE_TTL_SEC", 300)) * time.Second,

		ConsulHost: getenv("CONSUL_HOST", "localhost"),
		ConsulPort: atoienv("CONSUL_PORT", 8500),
	}
}
