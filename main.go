package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"inactivity-service/internal/config"
	"inactivity-service/internal/db"
	"inactivity-service/internal/handlers"
	"inactivity-service/internal/inactivity"
	"inactivity-service/internal/logging"
	"inactivity-service/internal/middleware"
	"inactivity-service/internal/observability"
	"inactivity-service/internal/rabbitmq"
	"inactivity-service/internal/repositories"
	"inactivity-service/internal/telegram"
	"inactivity-service/internal/telemetry"
	"inactivity-service/internal/ws"
)

const serviceName = "inactivity-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(serviceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTLP.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	database, err := db.Connect(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	if reason := rabbitmq.PublisherNoopReason(publisher); reason != "" {
		log.Warn().Str("mode", rabbitmq.PublisherMode(publisher)).Str("reason", reason).Msg("event publishing degraded")
	}

	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange); err != nil {
		log.Warn().Err(err).Msg("ws event publishing disabled")
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	audit := telemetry.NewAuditEmitter(publisher, "audit.inactivity", serviceName, cfg.Environment)

	activityRepo := repositories.NewActivityRepo(database)
	configRepo := repositories.NewConfigRepo(database)

	tgClient := telegram.NewClient(cfg.Telegram.BotToken)
	tracker := inactivity.NewTracker(activityRepo, configRepo, tgClient, inactivity.UTCClock{})

	hub := ws.NewHub()

	if cfg.Telegram.BotToken == "" {
		log.Warn().Msg("no bot token configured, telegram polling disabled")
	} else {
		bot := telegram.NewBot(tgClient, tracker, hub, publisher, audit, cfg.Telegram.PollTimeout)
		go bot.Run(ctx)
	}

	activityHandler := handlers.NewActivityHandler(tracker, hub, publisher, audit)
	scanWS := ws.NewScanWebSocketHandler(hub, cfg.Server.AdminToken)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(cfg.Server.AdminToken)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/chats/:chat_id/config", authMiddleware, activityHandler.GetConfig)
	router.PUT("/chats/:chat_id/config/inactive-days", authMiddleware, activityHandler.SetInactiveDays)
	router.PUT("/chats/:chat_id/config/new-user-days", authMiddleware, activityHandler.SetNewUserDays)
	router.POST("/chats/:chat_id/scan", authMiddleware, activityHandler.RunScan)
	router.GET("/chats/:chat_id/activity", authMiddleware, activityHandler.ListActivity)

	router.GET("/ws/chats/:chat_id/scans", scanWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.Debug)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
