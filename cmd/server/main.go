package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/config"
	"github.com/iliyamo/studio-class-booking/internal/database"
	"github.com/iliyamo/studio-class-booking/internal/handler"
	"github.com/iliyamo/studio-class-booking/internal/queue"
	"github.com/iliyamo/studio-class-booking/internal/repository"
	"github.com/iliyamo/studio-class-booking/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	loc, err := time.LoadLocation(cfg.StudioTimezone)
	if err != nil {
		log.Fatalf("studio timezone %q: %v", cfg.StudioTimezone, err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	packages := repository.NewPackageRepo(db)
	purchases := repository.NewPurchaseRepo(db)

	engine := booking.NewEngine(
		repository.NewStore(db),
		booking.NewRefundPolicy(cfg.CancelWindowHrs),
		loc,
	)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	scheduleH := handler.NewScheduleHandler(classes, loc)
	bookingH := handler.NewBookingHandler(engine, classes, bookings)
	adminClassH := handler.NewAdminClassHandler(engine, classes, loc)
	adminPartH := handler.NewAdminParticipantHandler(engine, classes)
	packageH := handler.NewPackageHandler(packages, purchases)
	webhookH := handler.NewWebhookHandler(cfg.WebhookSecret, users, packages, purchases)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, webhookH)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, scheduleH, packageH, rdb)
	router.RegisterBooking(e, bookingH, packageH, cfg.JWTSecret, rdb)
	router.RegisterAdmin(e, adminClassH, adminPartH, packageH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
