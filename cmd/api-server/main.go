package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"titlehub/database"
	"titlehub/internal/config"
	"titlehub/internal/microservices/http-api/handler"
	"titlehub/internal/microservices/http-api/middleware"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	codeStore := repository.NewConfirmationRedisStore(rdb, cfg.ConfirmationCodeTTL)

	// Services
	notifier := service.NewLogNotifier(logger, cfg.EmailFrom)
	authService := service.NewAuthService(userRepo, codeStore, notifier, cfg)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, logger)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	// Router
	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(rdb, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
	})
	r.Use(limiter.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public auth endpoints
	authH := handler.NewAuthHandler(authService)
	authH.RegisterRoutes(v1.Group("/auth"))

	// Reads are public; writes are authorized by the permission policy inside
	// the services, so the resource groups only need the actor resolved.
	optional := middleware.OptionalAuth(authService)

	categories := v1.Group("/categories", optional)
	handler.NewCategoryHandler(categoryService).RegisterRoutes(categories)

	genres := v1.Group("/genres", optional)
	handler.NewGenreHandler(genreService).RegisterRoutes(genres)

	titles := v1.Group("/titles", optional)
	handler.NewTitleHandler(titleService).RegisterRoutes(titles)
	handler.NewReviewHandler(reviewService).RegisterRoutes(titles)
	handler.NewCommentHandler(commentService).RegisterRoutes(titles)

	users := v1.Group("/users", middleware.AuthMiddleware(authService))
	handler.NewUserHandler(userService).RegisterRoutes(users)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h)
}
