package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/hyuniciel/1208-sns-proj/internal/cache"
	"github.com/hyuniciel/1208-sns-proj/internal/config"
	"github.com/hyuniciel/1208-sns-proj/internal/handler"
	"github.com/hyuniciel/1208-sns-proj/internal/repository"
	"github.com/hyuniciel/1208-sns-proj/internal/service"
	"github.com/hyuniciel/1208-sns-proj/pkg/database"
	"github.com/hyuniciel/1208-sns-proj/pkg/jwt"
	pkglog "github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/middleware"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
	"github.com/hyuniciel/1208-sns-proj/pkg/storage"
)

const (
	serviceName       = "feed-service"
	identityKeyPrefix = "feed"
	mediaRoute        = "/media"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Tables first, then the stats views over them
	if err := repository.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// Identity cache is optional
	var identityCache cache.IdentityCache
	if cfg.Redis.Address != "" {
		rc, err := cache.NewRedisIdentityCache(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, identityKeyPrefix)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		identityCache = rc
		logger.Info().Str("address", cfg.Redis.Address).Msg("identity cache enabled")
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(initCtx, cfg.Storage)
	initCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("storage initialized")

	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	logger.Info().Str("driver", cfg.Events.Driver).Msg("event publisher initialized")

	verifier, err := jwt.NewVerifier(cfg.Auth)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	// Initialize repositories
	userRepo := repository.NewGormUserRepository(db)
	postRepo := repository.NewGormPostRepository(db)
	likeRepo := repository.NewGormLikeRepository(db)
	commentRepo := repository.NewGormCommentRepository(db)
	followRepo := repository.NewGormFollowRepository(db)

	// Initialize services
	identitySvc := service.NewIdentityService(userRepo, identityCache, cfg.Redis.IdentityTTL)
	postSvc := service.NewPostService(postRepo, likeRepo, store, publisher)
	likeSvc := service.NewLikeService(likeRepo, postRepo, publisher)
	commentSvc := service.NewCommentService(commentRepo, postRepo, publisher)
	followSvc := service.NewFollowService(followRepo, userRepo, publisher)
	userSvc := service.NewUserService(userRepo, followRepo)

	authMiddleware := middleware.NewAuthMiddleware(verifier, identitySvc)
	httpHandler := handler.NewHandler(postSvc, likeSvc, commentSvc, followSvc, userSvc, authMiddleware)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	r.MaxMultipartMemory = cfg.Server.MaxMultipartMemory

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		r.Static(mediaRoute, cfg.Storage.Local.BasePath)
	}

	httpHandler.RegisterRoutes(r)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("feed service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down feed service")

	drainTimeout := cfg.Server.ShutdownTimeout
	if drainTimeout <= 0 {
		drainTimeout = 5 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	shutdownCancel()

	// Orphaned-image removals are bounded by their own timeout.
	drained := make(chan struct{})
	go func() {
		postSvc.Drain()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("image cleanup drain timed out")
	}

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close event publisher")
	}
	if identityCache != nil {
		identityCache.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info().Msg("feed service stopped")
}
