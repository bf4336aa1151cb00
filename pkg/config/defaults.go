package config

import "time"

const (
	DefaultMongoURI          = "mongodb://127.0.0.1:27017"
	DefaultMongoDatabaseName = "restaurant"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "5000"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 10 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCORSAllowedOrigin = "http://localhost:3000"

	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "123"
	DefaultJWTSecret     = "change-me-in-production"
	DefaultJWTTTL        = 1 * time.Hour

	DefaultRedisDB = 0

	DefaultBookingEventsTopic    = "restaurant.bookings"
	DefaultBookingEventsDLQTopic = "dlq-restaurant-bookings"
)
