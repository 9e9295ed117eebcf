package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"twitch-giveaway-backend/internal/common/config"
	"twitch-giveaway-backend/internal/common/logger"
	"twitch-giveaway-backend/internal/common/middleware"
	giveawayhttp "twitch-giveaway-backend/internal/features/giveaway/delivery/http"
	giveawaymysql "twitch-giveaway-backend/internal/features/giveaway/repository/mysql"
	giveawayservice "twitch-giveaway-backend/internal/features/giveaway/service"
	usermysql "twitch-giveaway-backend/internal/features/user/repository/mysql"
	"twitch-giveaway-backend/internal/notifications"
	"twitch-giveaway-backend/internal/platform/db"
	platformredis "twitch-giveaway-backend/internal/platform/redis"
	"twitch-giveaway-backend/internal/platform/twitch"
)

// @title           Twitch Giveaway API
// @version         1.0
// @description     Admin panel backend for Twitch channel giveaways.
// @BasePath        /api/v1

func main() {
	cfg := config.MustLoad()
	logger.Init("twitch-giveaway-backend", cfg.Debug)

	logger.Info().Bool("debug", cfg.Debug).Msg("Starting giveaway backend")

	ctx := context.Background()

	database, err := db.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	if err := db.EnsureSchema(ctx, database); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	var guard giveawayservice.DrawGuard
	if cfg.Redis.Addr != "" {
		redisClient, err := platformredis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		guard = platformredis.NewDrawGuard(redisClient, 0)
	} else {
		logger.Info().Msg("Redis not configured, using in-process draw guard")
		guard = giveawayservice.NewMemoryDrawGuard()
	}

	chat := twitch.NewChatClient(cfg.Twitch.Username, cfg.Twitch.ChatOAuth, cfg.Twitch.Channel)
	chat.Start(ctx)

	var sinks []notifications.Sink
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notifications.NewWebhookSink(cfg.Notify.WebhookURL))
	}
	if chat.Enabled() {
		sinks = append(sinks, notifications.NewChatSink(chat))
	}
	notifier := notifications.NewService(cfg.Notify.Timeout, sinks...)

	giveawayRepo := giveawaymysql.NewMySQLRepository(database)
	userRepo := usermysql.NewMySQLRepository(database)

	giveawaySvc := giveawayservice.NewGiveawayService(giveawayRepo, userRepo, notifier, guard)
	autoDraw := giveawayservice.NewAutoDrawService(giveawayRepo, giveawaySvc, cfg.AutoDraw.Interval, nil)
	autoDraw.Start()
	defer autoDraw.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(cfg.Auth.JWTSecret, cfg.Auth.AdminIDs))

	handler := giveawayhttp.NewGiveawayHandler(giveawaySvc, autoDraw)
	handler.RegisterRoutes(v1)

	registerProbes(router, database)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func registerProbes(router *gin.Engine, database interface {
	PingContext(ctx context.Context) error
}) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "twitch-giveaway-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
