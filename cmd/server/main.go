package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for the publish timeout

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/condortrails/tour-booking-api/internal/booking"    // Booking capacity manager
	"github.com/condortrails/tour-booking-api/internal/config"     // Internal config loader
	"github.com/condortrails/tour-booking-api/internal/database"   // MySQL connector
	"github.com/condortrails/tour-booking-api/internal/handler"    // HTTP handlers
	"github.com/condortrails/tour-booking-api/internal/mailer"     // SMTP notification mailer
	"github.com/condortrails/tour-booking-api/internal/middleware" // Rate limiting and response cache
	"github.com/condortrails/tour-booking-api/internal/queue"      // Event consumer
	"github.com/condortrails/tour-booking-api/internal/repository" // Data access layer
	"github.com/condortrails/tour-booking-api/internal/router"     // Route registration
	"github.com/condortrails/tour-booking-api/internal/service"    // RabbitMQ publisher
)

func main() {
	// Load a local .env file when present; in production the variables
	// come from the environment and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	// Connect to MySQL and verify the connection before serving.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Repositories share the single pooled DB handle.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	tourRepo := repository.NewTourRepo(db)
	departureRepo := repository.NewDepartureRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	commentRepo := repository.NewCommentRepo(db)

	// The booking manager owns every seat mutation.  Events publish to
	// RabbitMQ after commit; the publisher is best-effort.
	store := repository.NewBookingStore(db, tourRepo, userRepo, departureRepo, reservationRepo)
	publisher := service.NewEventPublisher(cfg.RabbitURL)
	manager := booking.NewManager(store, publisher, time.Duration(cfg.PublishTimeoutSec)*time.Second)

	// The consumer drains reservation events into notification emails.
	// It reconnects forever in its own goroutine.
	mail := mailer.New(mailer.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPass,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
	})
	consumer := queue.NewConsumer(cfg.RabbitURL, mail, cfg.OperatorEmail)
	go consumer.Run()

	e := echo.New() // Create Echo instance

	// Redis backs the distributed rate limiter and the response cache.
	// When Redis is unreachable the client is nil and both middlewares
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Handlers bundle their dependencies.
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(tourRepo, departureRepo, commentRepo)
	reservationHandler := handler.NewReservationHandler(manager, reservationRepo)
	adminResHandler := handler.NewAdminReservationHandler(manager, reservationRepo)
	adminCatHandler := handler.NewAdminCatalogHandler(tourRepo, departureRepo)
	commentHandler := handler.NewCommentHandler(commentRepo, tourRepo)

	// Register application routes.
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler)
	router.RegisterCustomer(e, reservationHandler, commentHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminCatHandler, adminResHandler, commentHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
