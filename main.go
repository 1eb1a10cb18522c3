package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/logging"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/projection"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Service, cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Service, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	database, err := db.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange, logger)
	defer auditPublisher.Close()
	emitter := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, cfg.Service, cfg.Environment, logger)
	logger.Info("audit publisher ready", zap.String("mode", rabbitmq.PublisherMode(auditPublisher)))

	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange); err != nil {
		logger.Warn("ws event publishing disabled", zap.Error(err))
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	readRepo := repositories.NewReadStateRepo(database)
	settingsRepo := repositories.NewChatSettingsRepo(database)
	userRepo := repositories.NewUserRepo(database)
	sessionRepo := repositories.NewSessionRepo(database)

	projector := projection.NewChatListProjector(chatRepo, messageRepo, readRepo, settingsRepo)

	hub := ws.NewHub(logger)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, sessionRepo)

	authHandler := handlers.NewAuthHandler(userRepo, sessionRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, projector, emitter)
	messageHandler := handlers.NewMessageHandler(chatRepo, messageRepo, readRepo, settingsRepo, hub)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-User-Token", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(otelgin.Middleware(cfg.Service))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	authed := router.Group("/", middleware.AuthMiddleware(sessionRepo))
	authed.GET("/chats", chatHandler.ListChats)
	authed.POST("/chats", chatHandler.CreateChat)
	authed.GET("/chats/:chat_id/messages", messageHandler.GetMessages)
	authed.POST("/chats/:chat_id/messages", messageHandler.PostMessage)
	authed.PUT("/chats/:chat_id/read", messageHandler.MarkRead)
	authed.PUT("/chats/:chat_id/pin", messageHandler.PinChat)
	authed.PUT("/users/me", authHandler.UpdateProfile)
	authed.GET("/users", authHandler.SearchUsers)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.DebugRoutes)

	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := router.Run(cfg.Addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
