package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/openclub/court-reservation/internal/booking"
	"github.com/openclub/court-reservation/internal/cache"
	"github.com/openclub/court-reservation/internal/config"
	"github.com/openclub/court-reservation/internal/database"
	"github.com/openclub/court-reservation/internal/handler"
	"github.com/openclub/court-reservation/internal/inventory"
	"github.com/openclub/court-reservation/internal/logger"
	"github.com/openclub/court-reservation/internal/middleware"
	"github.com/openclub/court-reservation/internal/queue"
	"github.com/openclub/court-reservation/internal/repository"
	"github.com/openclub/court-reservation/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		zlog.Warn("redis unavailable; rate limiting and availability cache disabled")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	clubs := repository.NewClubRepo(db)
	courts := repository.NewCourtRepo(db)
	slots := repository.NewTimeSlotRepo(db)
	reservations := repository.NewReservationRepo(db)

	// Services
	inv := inventory.NewService(db, clubs, courts, slots, zlog)
	engine := booking.NewEngine(db, slots, reservations, zlog)
	avCache := cache.NewAvailability(config.LoadAvailabilityCacheConfig(), rdb)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	clubH := handler.NewClubHandler(clubs)
	courtH := handler.NewCourtHandler(clubs, courts)
	slotH := handler.NewSlotHandler(clubs, inv, avCache)
	resH := handler.NewReservationHandler(engine, reservations, courts, clubs, avCache, zlog)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, clubH, courtH, slotH, resH, rateLimit)
	router.RegisterOwner(e, cfg.JWTSecret, clubH, courtH, slotH, resH)

	// Background consumer keeps its own reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			zlog.Error("reservation consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
