package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"chat-sidebar/internal/config"
	"chat-sidebar/internal/db"
	"chat-sidebar/internal/events"
	grpcserver "chat-sidebar/internal/grpc"
	"chat-sidebar/internal/handlers"
	"chat-sidebar/internal/middleware"
	"chat-sidebar/internal/observability"
	"chat-sidebar/internal/rabbitmq"
	"chat-sidebar/internal/repositories"
	"chat-sidebar/internal/telemetry"
	"chat-sidebar/internal/toolbar"
	"chat-sidebar/internal/ws"
)

var rootCmd = &cobra.Command{
	Use:   "chat-sidebar",
	Short: "Chat sidebar service",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	serveCmd := newServeCmd(&cfg)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, newMigrateCmd(&cfg))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST, websocket and gRPC health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP port")
	cmd.Flags().StringVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC health port")
	return cmd
}

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			return database.Close()
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	database, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))

	catalog, err := toolbar.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	chatRepo := repositories.NewChatRepo(database)
	hub := ws.NewHub()
	dispatcher := events.NewDispatcher(hub)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey(), cfg.ServiceName, cfg.Environment)

	chatHandler := handlers.NewChatHandler(chatRepo, dispatcher, audit)
	toolsHandler := handlers.NewToolsHandler(catalog)
	sidebarWS := ws.NewSidebarHandler(ctx, hub, chatRepo, dispatcher, catalog, ws.Options{
		GestureRate:  rate.Limit(cfg.GestureRate),
		GestureBurst: cfg.GestureBurst,
		StoreTimeout: cfg.StoreTimeout,
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	identity := middleware.IdentityMiddleware()

	router.GET("/chats", identity, chatHandler.ListChats)
	router.POST("/chats", identity, chatHandler.CreateChat)
	router.PATCH("/chats/:chat_id", identity, chatHandler.UpdateChat)
	router.POST("/chats/:chat_id/pin", identity, chatHandler.TogglePin)
	router.POST("/chats/:chat_id/archive", identity, chatHandler.ToggleArchive)
	router.POST("/chats/:chat_id/activity", identity, chatHandler.TouchChat)
	router.DELETE("/chats/:chat_id/me", identity, chatHandler.DeleteChatForMe)
	router.GET("/chats/:chat_id/dual/:secondary_id", identity, chatHandler.DualViewPath)

	router.GET("/tools", identity, toolsHandler.ListTools)
	router.GET("/models", identity, toolsHandler.ListModels)

	router.GET("/ws/sidebar", sidebarWS.Handle)

	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen for grpc: %v", err)
	}
	grpcServer, healthServer := grpcserver.NewServer()
	go grpcserver.WatchDependency(ctx, healthServer, 15*time.Second, database.PingContext)
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Printf("grpc server error: %v", err)
		}
	}()

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown error: %v", err)
		}
		grpcServer.GracefulStop()
	}()

	log.Printf("chat-sidebar listening http=:%s grpc=:%s db=%s", cfg.Port, cfg.GRPCPort, cfg.DBDriver)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	return nil
}
