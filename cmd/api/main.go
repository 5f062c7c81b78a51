package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/eventra/dashboard/api/internal/auth"
	"github.com/eventra/dashboard/api/internal/config"
	"github.com/eventra/dashboard/api/internal/database"
	"github.com/eventra/dashboard/api/internal/handler"
	"github.com/eventra/dashboard/api/internal/llm"
	middlewarepkg "github.com/eventra/dashboard/api/internal/middleware"
	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/router"
	"github.com/eventra/dashboard/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.AuthRequired {
		log.Printf("level=warn msg=\"AUTH_REQUIRED=false, /api accepts unauthenticated requests\"")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	prices, err := llm.LoadPrices(cfg.LLM.PricingFile)
	if err != nil {
		log.Fatalf("failed to load AI pricing: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	usersRepo := repository.NewPGXUsersRepository(pool)
	leadsRepo := repository.NewPGXLeadsRepository(pool)
	eventsRepo := repository.NewPGXEventsRepository(pool)
	tasksRepo := repository.NewPGXTasksRepository(pool)
	companyRepo := repository.NewPGXCompanyIntelligenceRepository(pool)

	completer := llm.NewClient(nil, cfg.LLM)
	insightService := service.NewInsightService(service.InsightRepositories{
		Leads:     leadsRepo,
		Events:    eventsRepo,
		Tasks:     tasksRepo,
		Templates: repository.NewPGXTemplatesRepository(pool),
		Insights:  repository.NewPGXInsightsRepository(pool),
		Usage:     repository.NewPGXUsageRepository(pool),
		Company:   companyRepo,
	}, completer, service.InsightOptions{
		MaxRequestsPerDay: cfg.AIMaxRequestsPerDay,
		Prices:            prices,
	})

	var normalizerOpts []service.ContactNormalizerOption
	if cfg.CheckEmailMX {
		normalizerOpts = append(normalizerOpts, service.WithMXCheck(nil))
	}
	leadsService := service.NewLeadsService(leadsRepo, eventsRepo, tasksRepo, service.NewContactNormalizer(cfg.PhoneRegion, normalizerOpts...))

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(service.NewAuthService(usersRepo, jwtManager)),
		AI:      handler.NewAIHandler(insightService),
		Leads:   handler.NewLeadsHandler(leadsService),
		Company: handler.NewCompanyIntelligenceHandler(service.NewCompanyIntelligenceService(companyRepo)),
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("level=warn msg=\"redis ping failed, shared rate limiter will fail open\" err=%v", err)
		}
		handlers.AILimiter = middlewarepkg.SharedAIRateLimiter(redisClient, cfg.AIRateLimit)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.BodyLimit("12M"))

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("level=info msg=\"listening\" port=%s model=%s", cfg.Port, completer.Model())
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
