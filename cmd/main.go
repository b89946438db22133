package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/4ier/logodeth/internal/api"
	"github.com/4ier/logodeth/internal/config"
	"github.com/4ier/logodeth/internal/cost"
	"github.com/4ier/logodeth/internal/middleware"
	"github.com/4ier/logodeth/internal/provider"
	"github.com/4ier/logodeth/internal/ratelimit"
	"github.com/4ier/logodeth/internal/recognition"
	"github.com/4ier/logodeth/pkg/cache"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  LOGODETH - Metal Logo Recognition Engine")
	fmt.Println("==============================================")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	fmt.Printf("Starting server on port %s...\n", cfg.Port)

	// Connect to Redis. An unreachable store degrades the cache to a
	// permanent miss instead of blocking startup.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Redis unavailable (%v). Results will not be cached.", err)
		rdb = nil
	} else {
		log.Println("Redis connected.")
	}
	cancel()

	resultCache := cache.New(rdb, cfg.CacheTTLDuration())
	defer resultCache.Close()

	// Provider fallback chain: OpenAI-compatible first, then Anthropic.
	providers := []provider.Client{
		provider.NewOpenAI(provider.OpenAIConfig{
			APIKey:        cfg.OpenAIKey,
			BaseURL:       cfg.OpenAIBaseURL,
			Model:         cfg.OpenAIModel,
			UseOpenRouter: cfg.UseOpenRouter,
			SiteURL:       cfg.OpenRouterSiteURL,
			AppName:       cfg.OpenRouterAppName,
			MaxTokens:     cfg.MaxTokens,
			Temperature:   cfg.Temperature,
			Timeout:       cfg.AITimeoutDuration(),
		}),
		provider.NewAnthropic(provider.AnthropicConfig{
			APIKey:      cfg.AnthropicKey,
			BaseURL:     cfg.AnthropicBaseURL,
			Model:       cfg.AnthropicModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.AITimeoutDuration(),
		}),
	}
	if len(provider.Chain(providers...)) == 0 {
		log.Println("WARNING: No AI provider configured. Recognition requests will fail.")
	}

	svc := recognition.NewService(
		resultCache,
		ratelimit.New(cfg.RateLimitPerMinute),
		cost.New(),
		providers,
		cfg.DailyBudgetUSD,
		cfg.MonthlyBudgetUSD,
	)
	handlers := api.NewHandlers(svc, cfg.MaxFileSize, cfg.AllowedExtensions)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recognize", handlers.Recognize)
		v1.GET("/recognize/:hash", handlers.CachedResult)
		v1.GET("/usage", handlers.Usage)

		// Administrative cache endpoints. Fail-secure: disabled when no
		// admin key is configured.
		if cfg.AdminAPIKey == "" {
			log.Println("WARNING: LOGODETH_ADMIN_API_KEY not set. Cache admin API is disabled (fail-secure).")
		}
		admin := v1.Group("/cache", middleware.AdminAuth(cfg.AdminAPIKey))
		admin.DELETE("", handlers.ClearCache)
		admin.GET("/stats", handlers.CacheStats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("LOGODETH gateway is ready on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited.")
}
