package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/config"
	"github.com/ceniit/resource-booking/internal/database"
	"github.com/ceniit/resource-booking/internal/handler"
	"github.com/ceniit/resource-booking/internal/middleware"
	"github.com/ceniit/resource-booking/internal/queue"
	"github.com/ceniit/resource-booking/internal/repository"
	"github.com/ceniit/resource-booking/internal/router"
	"github.com/ceniit/resource-booking/internal/scheduler"
	"github.com/ceniit/resource-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	resourceRepo := repository.NewResourceRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	sched := scheduler.New(resourceRepo, reservationRepo)

	var publisher handler.EventPublisher
	if cfg.AMQPURL != "" {
		publisher = service.NewPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartReservationConsumer(cfg.AMQPURL); err != nil {
				log.Printf("reservation consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("eventing disabled: no RABBITMQ_URL/AMQP_URL configured")
	}

	authH := handler.NewAuthHandler(userRepo, tokenRepo, &cfg)
	userH := handler.NewUserHandler(userRepo, tokenRepo, &cfg)
	resourceH := handler.NewResourceHandler(resourceRepo)
	projectH := handler.NewProjectHandler(projectRepo)
	reservationH := handler.NewReservationHandler(sched, publisher)

	e := echo.New()
	e.HideBanner = true

	// Redis backs both the rate limiter and the response cache. Either
	// feature degrades to a no-op when Redis is unreachable.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterReservations(e, reservationH, cfg.JWTSecret)
	router.RegisterResources(e, resourceH, cfg.JWTSecret, cache)
	router.RegisterProjects(e, projectH, cfg.JWTSecret, cache)
	router.RegisterUsers(e, userH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
