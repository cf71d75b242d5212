package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/config"
	"github.com/studiokit/rental-backend/internal/database"
	"github.com/studiokit/rental-backend/internal/handler"
	"github.com/studiokit/rental-backend/internal/middleware"
	"github.com/studiokit/rental-backend/internal/queue"
	"github.com/studiokit/rental-backend/internal/repository"
	"github.com/studiokit/rental-backend/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	productRepo := repository.NewProductRepo(db)
	rentalRepo := repository.NewRentalRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	catalogHandler := handler.NewCatalogHandler(productRepo)
	managerProducts := handler.NewManagerProductHandler(productRepo)
	rentalHandler := handler.NewRentalHandler(productRepo, rentalRepo)
	managerRentals := handler.NewManagerRentalHandler(productRepo, rentalRepo)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheCfg := config.LoadCacheConfig()
	cache := middleware.NewRedisCache(cacheCfg, rdb)

	// Catalog mutations and stock movements drop the cached responses so
	// readers never wait out the TTL to see a change.
	invalidate := middleware.NewCacheInvalidator(cacheCfg, rdb)
	managerProducts.Invalidate = invalidate
	rentalHandler.Invalidate = invalidate
	managerRentals.Invalidate = invalidate

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogHandler, managerProducts, cfg.JWTSecret, cache)
	router.RegisterRentals(e, rentalHandler, managerRentals, cfg.JWTSecret)

	// Background consumer appending rental events to logs/rental.log. It
	// reconnects on broker failures and never stops the server.
	go func() {
		if err := queue.StartRentalConsumer(); err != nil {
			log.Printf("rental consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
