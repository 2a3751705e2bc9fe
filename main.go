package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"group-chat-service/internal/chat"
	"group-chat-service/internal/config"
	"group-chat-service/internal/db"
	"group-chat-service/internal/handlers"
	"group-chat-service/internal/logging"
	"group-chat-service/internal/observability"
	"group-chat-service/internal/rabbitmq"
	"group-chat-service/internal/repositories"
	"group-chat-service/internal/telemetry"
	"group-chat-service/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		logger.Fatalw("failed to init tracing", "error", err)
	}

	rdb, err := db.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Infow("event publisher ready", "mode", rabbitmq.PublisherMode(publisher), "noop_reason", rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, logger, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)

	groupRepo := repositories.NewGroupRepo(rdb, logger)
	groupMessageRepo := repositories.NewGroupMessageRepo(rdb, logger, cfg.MessageRetention)

	service := chat.NewService(groupRepo, groupMessageRepo, logger,
		chat.WithStoreTimeout(cfg.StoreTimeout),
		chat.WithLeaveOnDisconnect(cfg.LeaveOnDisconnect),
		chat.WithAudit(audit),
	)

	hub := ws.NewHub(logger)
	groupWS := ws.NewGroupHubHandler(hub, service, logger, cfg.MaxMessageSize)
	groupHandler := handlers.NewGroupHandler(service, logger, audit)

	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/hub/chat", groupWS.Handle)

	router.GET("/api/groups", groupHandler.ListGroups)
	router.GET("/api/groups/:name", groupHandler.GetGroup)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infow("group chat service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	groupWS.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("http shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warnw("tracing shutdown failed", "error", err)
	}
}
