package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/olzhasov/ticketbot/internal/config"
	"github.com/olzhasov/ticketbot/internal/database"
	"github.com/olzhasov/ticketbot/internal/handler"
	"github.com/olzhasov/ticketbot/internal/middleware"
	"github.com/olzhasov/ticketbot/internal/notification"
	"github.com/olzhasov/ticketbot/internal/queue"
	"github.com/olzhasov/ticketbot/internal/repository"
	"github.com/olzhasov/ticketbot/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use env vars
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	// The store must not serve on a half-migrated schema.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	userRepo := repository.NewUserRepo(db)
	eventRepo := repository.NewEventRepo(db)
	reservationRepo := repository.NewReservationRepo(db, eventRepo)
	guestRepo := repository.NewGuestRepo(db, eventRepo)
	reportRepo := repository.NewReportRepo(db)

	queueEnabled := cfg.AMQPURL != ""
	if queueEnabled {
		// The consumer reconnects forever; notification is best effort
		// and the notifier may be nil when no bot token is configured.
		var notifier queue.Notifier
		if cfg.BotToken != "" {
			tg, err := notification.NewTelegramNotifier(cfg.BotToken)
			if err != nil {
				log.Printf("telegram notifier disabled: %v", err)
			} else {
				notifier = tg
			}
		}
		go func() {
			if err := queue.StartReviewConsumer(notifier); err != nil {
				log.Printf("review consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()

	// Redis is optional: when unreachable the cache and rate limiter
	// degrade to pass-through middleware.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	publicHandler := handler.NewPublicHandler(eventRepo, userRepo, reservationRepo)
	bookingHandler := handler.NewBookingHandler(userRepo, eventRepo, reservationRepo, queueEnabled)
	authHandler := handler.NewAuthHandler(cfg)
	adminResHandler := handler.NewAdminReservationHandler(userRepo, eventRepo, reservationRepo, reportRepo, queueEnabled)
	adminGuestHandler := handler.NewAdminGuestHandler(guestRepo, reportRepo)
	adminEventHandler := handler.NewAdminEventHandler(eventRepo, userRepo)
	exportHandler := handler.NewExportHandler(reportRepo)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler)
	router.RegisterPublic(e, publicHandler, bookingHandler)
	router.RegisterAdmin(e, cfg.JWTSecret, adminResHandler, adminGuestHandler, adminEventHandler, exportHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
