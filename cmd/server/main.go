package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/richardquay/urg-ride-maker/internal/config"
	"github.com/richardquay/urg-ride-maker/internal/database"
	"github.com/richardquay/urg-ride-maker/internal/discord"
	"github.com/richardquay/urg-ride-maker/internal/handlers"
	"github.com/richardquay/urg-ride-maker/internal/middleware"
	"github.com/richardquay/urg-ride-maker/internal/services"
	"github.com/richardquay/urg-ride-maker/internal/store"
	"github.com/richardquay/urg-ride-maker/internal/ws"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Logger = logger

	cfg := config.Load()

	rideOptions, err := config.LoadRideOptions(cfg.RideOptionsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load ride options")
	}

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, weather cache disabled")
		redisClient = nil
	}

	hub := ws.NewHub(logger)
	rideStore := store.NewGormStore(db)

	authService := services.NewAuthService(cfg)
	rideService := services.NewRideService(rideStore, rideOptions)
	tracker := services.NewParticipationTracker(rideStore)
	weatherService := services.NewWeatherService(cfg.WeatherAPIKey, redisClient, logger)

	var gateway *discord.Gateway
	if cfg.BotToken != "" {
		client := discord.NewClient(cfg.BotToken)
		notifier := discord.NewNotifier(client, hub, logger)
		scheduler := services.NewReminderScheduler(rideStore, notifier, logger)
		defer scheduler.Stop()

		if err := scheduler.ScheduleAll(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("could not reschedule stored rides")
		}

		handler := discord.NewHandler(
			client, rideOptions, rideService, tracker, scheduler,
			weatherService, rideStore, hub, cfg.GuildID, logger,
		)
		gateway = discord.NewGateway(client, cfg.BotToken, handler, logger)
		gateway.Start(context.Background())
		defer gateway.Stop()
	} else {
		logger.Warn().Msg("DISCORD_BOT_TOKEN not set, bot disabled")
	}

	authHandler := handlers.NewAuthHandler(authService)
	rideHandler := handlers.NewRideHandler(rideStore)
	wsHandler := handlers.NewWSHandler(hub, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, handlers.MessageResponse{Message: "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/feed", wsHandler.Feed)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		rides := api.Group("/rides")
		rides.Use(middleware.JWTAuth(authService))
		{
			rides.GET("", rideHandler.List)
			rides.GET("/:messageId", rideHandler.Get)
		}
	}

	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("server starting")
		if err := r.Run(":" + cfg.ServerPort); err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
}
