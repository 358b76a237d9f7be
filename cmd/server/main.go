package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/coworking-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/coworking-booking/internal/database"   // MySQL connection pool
	"github.com/iliyamo/coworking-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/coworking-booking/internal/ledger"     // Booking ledger engine
	"github.com/iliyamo/coworking-booking/internal/middleware" // Cache and rate-limit middleware
	"github.com/iliyamo/coworking-booking/internal/pricing"    // Pricing engine
	"github.com/iliyamo/coworking-booking/internal/queue"      // Calendar sync consumer
	"github.com/iliyamo/coworking-booking/internal/repository" // DB repositories
	"github.com/iliyamo/coworking-booking/internal/router"     // Route registration
	queue_publisher "github.com/iliyamo/coworking-booking/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env always wins

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when REDIS_ADDR is unset; middleware degrades to no-op

	// Domain wiring: policy -> engine -> store -> ledger.
	policy := config.LoadPricing(cfg.PricingPath)
	engine := pricing.NewEngine(policy)
	store := repository.NewSQLStore(db)
	led := ledger.NewLedger(store, policy, queue_publisher.CalendarNotifier{})

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resources := repository.NewResourceRepo(db)
	bookings := repository.NewBookingRepo(db)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	auth := handler.NewAuthHandler(cfg, users, tokens)
	browse := handler.NewBrowseHandler(resources, bookings)
	booking := handler.NewBookingHandler(led, engine, store, resources)
	account := handler.NewAccountHandler(store)
	admin := handler.NewAdminHandler(led, store, booking)

	router.RegisterRoutes(e) // health check
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterPublic(e, browse)
	router.RegisterBooking(e, booking, account, cfg.JWTSecret)
	router.RegisterAdmin(e, admin, cfg.JWTSecret)

	// Calendar sync consumer runs for the lifetime of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartCalendarConsumer(); err != nil {
			log.Printf("calendar consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
