package main

import (
	"collaborative-docs-backend/internal/collab"
	"collaborative-docs-backend/internal/config"
	"collaborative-docs-backend/internal/db"
	"collaborative-docs-backend/internal/document"
	"collaborative-docs-backend/internal/file"
	"collaborative-docs-backend/internal/logger"
	"collaborative-docs-backend/internal/metrics"
	"collaborative-docs-backend/internal/middleware"
	"collaborative-docs-backend/internal/realtime"
	"collaborative-docs-backend/internal/storage"
	"collaborative-docs-backend/internal/user"
	"collaborative-docs-backend/internal/worker"
	"collaborative-docs-backend/redis"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	config.LoadConfig()

	appLogger, err := logger.NewLogger(config.AppConfig.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	if config.AppConfig.Environment == "development" {
		db.SeedData()
	}

	// Initialize Redis
	redis.InitRedis()
	cache := redis.NewCache(redis.RedisClient)

	// Blob storage
	blobStore := newBlobStore(appLogger)

	// Worker pool for websocket fanout
	pool := worker.NewWorkerPool(8, appLogger)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)
	collabRepo := collab.NewRepository(db.AppDb)
	fileRepo := file.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	docService := document.NewService(docRepo, cache)
	collabService := collab.NewService(collabRepo, docRepo, userService)
	fileService := file.NewService(fileRepo, blobStore, docRepo, collabService, appLogger)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	docHandler := document.NewHandler(docService)
	collabHandler := collab.NewHandler(collabService)
	fileHandler := file.NewHandler(fileService)

	authMiddleware := middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler(appLogger))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}
	if config.AppConfig.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Auth routes
	router.POST("/api/auth/signup", userHandler.Register)
	router.POST("/api/auth/signin", userHandler.Login)
	router.GET("/api/profile", authMiddleware.AuthMiddleWare(), userHandler.GetProfile)
	router.GET("/api/users", authMiddleware.AuthMiddleWare(), userHandler.SearchUsers)

	// Public routes
	router.GET("/api/public/hello", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello, this is a public endpoint!")
	})
	router.GET("/api/public/status", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running!")
	})
	router.GET("/api/public/documents", docHandler.ShowPublicDocuments)

	// Document routes
	router.POST("/api/documents", authMiddleware.AuthMiddleWare(), docHandler.Create)
	router.GET("/api/documents", authMiddleware.AuthMiddleWare(), docHandler.ShowUserDocuments)
	router.GET("/api/documents/:id", authMiddleware.OptionalAuthMiddleware(), docHandler.ShowDocument)
	router.PUT("/api/documents/:id", authMiddleware.AuthMiddleWare(), docHandler.Update)
	router.DELETE("/api/documents/:id", authMiddleware.AuthMiddleWare(), docHandler.DeleteDocument)
	router.GET("/api/search/documents", authMiddleware.OptionalAuthMiddleware(), docHandler.SearchDocuments)

	// Collaboration routes
	router.GET("/api/documents/:id/collaborators", authMiddleware.AuthMiddleWare(), collabHandler.ListCollaborators)
	router.GET("/api/documents/:id/activities", authMiddleware.AuthMiddleWare(), collabHandler.ListActivities)
	router.GET("/api/documents/:id/versions", authMiddleware.AuthMiddleWare(), collabHandler.ListVersions)
	router.POST("/api/documents/:id/invite", authMiddleware.AuthMiddleWare(), collabHandler.InviteCollaborator)
	router.POST("/api/documents/:id/versions/:versionId/restore", authMiddleware.AuthMiddleWare(), collabHandler.RestoreVersion)

	// File routes
	router.POST("/api/files/upload", authMiddleware.AuthMiddleWare(), fileHandler.Upload)
	router.GET("/api/files/download/:fileName", fileHandler.Download)
	router.GET("/api/files/my", authMiddleware.AuthMiddleWare(), fileHandler.ListMyFiles)
	router.GET("/api/files/document/:documentId", authMiddleware.AuthMiddleWare(), fileHandler.ListDocumentFiles)
	router.DELETE("/api/files/:fileId", authMiddleware.AuthMiddleWare(), fileHandler.Delete)

	// Metrics
	router.GET("/metrics", metrics.Handler())

	// Realtime collaboration channel; needs the redis broker
	if redis.RedisClient != nil {
		broker := redis.NewBroker(redis.RedisClient)
		engine := realtime.NewEngine(docRepo, userService, collabService, broker, appLogger)
		hub := realtime.NewHub(engine, broker, pool, appLogger)
		router.GET("/ws", authMiddleware.AuthMiddleWare(), hub.ServeWS)
	} else {
		appLogger.Warn("redis unavailable, realtime collaboration disabled")
	}

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		appLogger.Info("server listening", zap.String("port", serverPort))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("server shutdown error", zap.Error(err))
	}

	<-ctx.Done()
	appLogger.Info("server shutdown complete")
}

func newBlobStore(appLogger *zap.Logger) storage.BlobStore {
	switch config.AppConfig.StorageDriver {
	case "minio":
		store, err := storage.ConnectMinio(
			config.AppConfig.MinioEndpoint,
			config.AppConfig.MinioAccessKey,
			config.AppConfig.MinioSecretKey,
			config.AppConfig.MinioBucket,
			appLogger,
		)
		if err != nil {
			log.Fatalf("failed to connect to MinIO: %v", err)
		}
		return store
	default:
		store, err := storage.NewLocalStore(config.AppConfig.UploadDir)
		if err != nil {
			log.Fatalf("failed to create upload directory: %v", err)
		}
		return store
	}
}
