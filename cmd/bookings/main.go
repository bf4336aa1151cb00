package main

import (
	"context"

	adminhandler "tablebook/internal/admin/handler"
	adminservice "tablebook/internal/admin/service"
	"tablebook/internal/bookings/events"
	"tablebook/internal/bookings/handler"
	"tablebook/internal/bookings/repository"
	"tablebook/internal/bookings/service"
	"tablebook/internal/bookings/validator"
	"tablebook/pkg/app"
	"tablebook/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	publisher, err := events.NewPublisher(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize booking events", "error", err)
	}

	bookingService := initServices(cfg, publisher)
	adminService, err := adminservice.NewAdminService(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize admin login", "error", err)
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewBookingHandler(bookingService, cfg.Log),
		adminhandler.NewAdminHandler(adminService, cfg.Log),
	)
	serverApp.OnShutdown(publisher.Close)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()
	if err := bookingRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to ensure booking indexes", "error", err)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
