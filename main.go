package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/attachments"
	"messenger-service/internal/auth"
	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/ws"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.Environment, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN, log)
	if err != nil {
		log.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info("events publisher ready",
		"mode", rabbitmq.PublisherMode(publisher),
		"reason", rabbitmq.PublisherNoopReason(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit_log", "messenger-service", cfg.Environment, log)

	userRepo := repositories.NewUserRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	fanout := ws.NewFanout(hub, log)
	presence := ws.NewPresenceTracker(userRepo, hub, log)
	typing := ws.NewTypingCoordinator(hub)
	defer typing.Stop()

	messageService := services.NewMessageService(chatRepo, messageRepo, fanout, log)
	receiptService := services.NewReceiptService(chatRepo, messageRepo, fanout, log)
	reactionService := services.NewReactionService(chatRepo, messageRepo, fanout, log)
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo, log)

	authenticator := auth.NewJWTAuthenticator(cfg.JWTSecret)
	dispatcher := ws.NewDispatcher(messageService, receiptService, reactionService, chatRepo, typing, hub, log)
	wsHandler := ws.NewHandler(hub, presence, dispatcher, authenticator, log)

	store, err := attachments.NewDiskStore(cfg.UploadDir, cfg.MaxUploadSize, log)
	if err != nil {
		log.Error("attachment store init failed", "err", err)
		os.Exit(1)
	}

	chatHandler := handlers.NewChatHandler(chatService, audit)
	messageHandler := handlers.NewMessageHandler(messageService, audit)
	reactionHandler := handlers.NewReactionHandler(reactionService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	uploadHandler := handlers.NewUploadHandler(store)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("messenger-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.POST("/chats/direct", authMiddleware, chatHandler.StartDirect)
	router.POST("/chats/group", authMiddleware, chatHandler.CreateGroup)
	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.GET("/chats/unread", authMiddleware, receiptHandler.UnreadCounts)
	router.DELETE("/chats/:chat_id", authMiddleware, chatHandler.Deactivate)
	router.POST("/chats/:chat_id/participants", authMiddleware, chatHandler.AddParticipant)
	router.DELETE("/chats/:chat_id/participants/:user_id", authMiddleware, chatHandler.RemoveParticipant)

	router.POST("/chats/:chat_id/messages", authMiddleware, messageHandler.PostMessage)
	router.GET("/chats/:chat_id/messages", authMiddleware, messageHandler.GetMessages)
	router.GET("/chats/:chat_id/messages/search", authMiddleware, messageHandler.SearchMessages)
	router.POST("/chats/:chat_id/read", authMiddleware, receiptHandler.MarkChatRead)
	router.GET("/chats/:chat_id/unread", authMiddleware, receiptHandler.UnreadCount)

	router.PUT("/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.POST("/messages/:message_id/reactions", authMiddleware, reactionHandler.AddReaction)
	router.DELETE("/messages/:message_id/reactions", authMiddleware, reactionHandler.RemoveReaction)
	router.POST("/messages/:message_id/read", authMiddleware, receiptHandler.MarkRead)

	router.POST("/uploads", authMiddleware, uploadHandler.Upload)
	router.GET("/uploads/:name", authMiddleware, uploadHandler.Serve)

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, authMiddleware, audit, hub, cfg.DebugRoutes)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "err", err)
	}
}
