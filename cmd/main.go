package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"linkup/backend/internal/api/handler"
	"linkup/backend/internal/auth"
	"linkup/backend/internal/blob"
	"linkup/backend/internal/chathub"
	"linkup/backend/internal/config"
	"linkup/backend/internal/logging"
	"linkup/backend/internal/models"
	"linkup/backend/internal/notify"
	"linkup/backend/internal/presence"
	"linkup/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config, logger *zap.Logger) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect PostgreSQL", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logger.Fatal("failed to connect Redis", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.ChatMessage{},
		&models.Notification{},
	); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	logger.Info("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, rdb := setupDependencies(cfg, logger)
	store := storage.NewStorageService(db, rdb, logger)
	tracker := presence.NewRedisTracker(rdb, cfg.Presence.ClearThreadOnDisconnect)
	hub := chathub.NewHub(logger)
	authSvc := auth.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.Issuer, store)

	blobs, err := blob.NewDiskStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
	if err != nil {
		logger.Fatal("failed to initialize blob store", zap.Error(err))
	}

	var pusher notify.Pusher
	if cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegramPusher(cfg.Telegram.BotToken, logger)
		if err != nil {
			logger.Warn("push sink disabled", zap.Error(err))
		} else {
			pusher = tg
		}
	}
	bridge := notify.NewBridge(store, pusher, logger)

	gateway := chathub.NewGateway(store, tracker, hub, authSvc, blobs, bridge, logger)

	// Replays frames published by sibling instances into the local
	// hub.
	pubsub := chathub.NewBridge(hub, rdb, gateway.InstanceID(), logger)
	go pubsub.Run(context.Background())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	h := handler.NewHandler(gateway, store, authSvc, logger)

	r.POST("/api/token", h.IssueToken)
	api := r.Group("/api", h.AuthRequired())
	{
		api.GET("/threads", h.ListThreads)
		api.POST("/threads", h.CreateThread)
		api.GET("/threads/:threadID/messages", h.ListMessages)
	}
	r.GET("/ws/chat/:threadID", h.ServeWebSocket)
	r.Static(cfg.Blob.BaseURL, cfg.Blob.Dir)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	logger.Info("starting LinkUp messaging backend", zap.String("addr", server.Addr))
	logger.Fatal("server stopped", zap.Error(server.ListenAndServe()))
}
